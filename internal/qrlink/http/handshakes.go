package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/lanternauth/qrlink/internal/qrlink/service"
	"github.com/lanternauth/qrlink/pkg/httpx"
	"github.com/lanternauth/qrlink/pkg/linksdk"
	"github.com/lanternauth/qrlink/pkg/slogx"
)

// HandshakeHandler handles the handshake lifecycle endpoints.
type HandshakeHandler struct {
	HandshakeService *service.HandshakeService
}

// writeServiceError maps the service error taxonomy onto HTTP responses.
// Anything unrecognized is a persistence or programming failure and comes
// back as 500.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidParameter):
		linksdk.ErrInvalidRequest.WriteError(w)
	case errors.Is(err, service.ErrBanned):
		linksdk.ErrBanned.WriteError(w)
	case errors.Is(err, service.ErrForbiddenSource):
		linksdk.ErrForbiddenSource.WriteError(w)
	case errors.Is(err, service.ErrNotFoundOrExpired):
		linksdk.ErrSessionExpired.WriteError(w)
	case errors.Is(err, service.ErrInvalidTransition):
		linksdk.ErrInvalidTransition.WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		linksdk.ErrUserNotFound.WriteError(w)
	default:
		log.Error("handshake request failed", "err", err)
		linksdk.ErrServerError.WriteError(w)
	}
}

// HandleCreate handles POST /v1/handshakes
//
//	@Summary		Create a QR login handshake
//	@Description	Starts a new handshake for the calling desktop. The response carries the QR payload to render and the handshake expiry.
//	@Description	The origin IP is taken from the connection unless a trusted frontend supplies one in the body.
//	@Tags			Handshakes
//	@Accept			json
//	@Produce		json
//	@Param			request	body		linksdk.CreateHandshakeRequest		false	"Optional origin overrides"
//	@Success		200		{object}	linksdk.CreateHandshakeResponse		"Handshake id, QR payload and expiry"
//	@Failure		400		{object}	linksdk.ErrorResponse				"Malformed origin IP"
//	@Failure		403		{object}	linksdk.ErrorResponse				"Origin IP or device fingerprint is banned"
//	@Failure		500		{object}	linksdk.ErrorResponse				"Internal server error"
//	@Router			/v1/handshakes [post].
func (h *HandshakeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// Body is optional; an empty body means "use the observed origin".
	var req linksdk.CreateHandshakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Warn("failed to parse request", "err", err)
		linksdk.ErrInvalidRequest.WriteError(w)
		return
	}

	ip := req.IP
	if ip == "" {
		ip = httpx.ClientIP(r)
	}

	resp, err := h.HandshakeService.Create(ctx, ip, req.Fingerprint)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, linksdk.CreateHandshakeResponse{
		ID:        resp.ID,
		QRPayload: resp.QRPayload,
		ExpiresAt: resp.ExpiresAt,
	})
}

// HandleStatus handles GET /v1/handshakes/{id}
//
//	@Summary		Poll handshake status
//	@Description	Returns the current handshake state. Once the state is success and the token is still live, the one-time
//	@Description	login token is included; after the token window closes the state stays success with the token omitted.
//	@Description	Unknown ids report expired, indistinguishable from reaped sessions.
//	@Tags			Handshakes
//	@Produce		json
//	@Param			id	path		string						true	"Handshake id"
//	@Success		200	{object}	linksdk.HandshakeStatus		"Current state; token fields present only on success with a live token"
//	@Failure		400	{object}	linksdk.ErrorResponse		"Malformed id"
//	@Router			/v1/handshakes/{id} [get].
func (h *HandshakeHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	resp, err := h.HandshakeService.Status(ctx, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	status := linksdk.HandshakeStatus{State: string(resp.State)}
	if resp.Token != nil {
		status.Token = *resp.Token
		status.TokenExpiresAt = resp.TokenExpiresAt
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, status)
}

// HandleScan handles POST /v1/handshakes/{id}/scan
//
//	@Summary		Mark the handshake as scanned
//	@Description	Signals that a device camera picked up the QR code. Attaches no identity and grants nothing;
//	@Description	only moves a pending handshake to scanned so the desktop can show progress.
//	@Tags			Handshakes
//	@Produce		json
//	@Param			id	path		string					true	"Handshake id"
//	@Success		200	{object}	linksdk.ActionResponse	"Handshake scanned"
//	@Failure		409	{object}	linksdk.ErrorResponse	"Handshake already resolved"
//	@Failure		410	{object}	linksdk.ErrorResponse	"Handshake unknown or expired"
//	@Router			/v1/handshakes/{id}/scan [post].
func (h *HandshakeHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.HandshakeService.Scan(ctx, r.PathValue("id")); err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, linksdk.ActionResponse{Success: true})
}

// HandleConfirm handles POST /v1/handshakes/{id}/confirm
//
//	@Summary		Confirm the handshake for an identity
//	@Description	Approves the login on behalf of user_identity from an allow-listed client surface, binding the user
//	@Description	and minting the one-time token exactly once. Exactly one confirm or reject wins per handshake.
//	@Tags			Handshakes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Handshake id"
//	@Param			request	body		linksdk.ConfirmHandshakeRequest	true	"Identity and client surface"
//	@Success		200		{object}	linksdk.ActionResponse			"Handshake confirmed"
//	@Failure		400		{object}	linksdk.ErrorResponse			"Malformed id or body"
//	@Failure		403		{object}	linksdk.ErrorResponse			"Confirmation source not allow-listed"
//	@Failure		404		{object}	linksdk.ErrorResponse			"Confirming identity unknown"
//	@Failure		409		{object}	linksdk.ErrorResponse			"Handshake already resolved"
//	@Failure		410		{object}	linksdk.ErrorResponse			"Handshake unknown or expired"
//	@Router			/v1/handshakes/{id}/confirm [post].
func (h *HandshakeHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req linksdk.ConfirmHandshakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		linksdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.HandshakeService.Confirm(ctx, r.PathValue("id"), req.UserIdentity, req.Source); err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, linksdk.ActionResponse{Success: true})
}

// HandleReject handles POST /v1/handshakes/{id}/reject
//
//	@Summary		Reject the handshake
//	@Description	Refuses the login. Needs no identity or source; a rejected handshake never yields a token.
//	@Tags			Handshakes
//	@Produce		json
//	@Param			id	path		string					true	"Handshake id"
//	@Success		200	{object}	linksdk.ActionResponse	"Handshake rejected"
//	@Failure		409	{object}	linksdk.ErrorResponse	"Handshake already resolved"
//	@Failure		410	{object}	linksdk.ErrorResponse	"Handshake unknown or expired"
//	@Router			/v1/handshakes/{id}/reject [post].
func (h *HandshakeHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.HandshakeService.Reject(ctx, r.PathValue("id")); err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, linksdk.ActionResponse{Success: true})
}
