// Package linksdk is the Go client for the qrlink handshake service.
//
// It carries the wire types shared between the server handlers and client
// code, a typed APIError mirroring the server's error responses, and a small
// client covering both sides of the flow: the desktop (create a handshake,
// poll it until resolved) and the mobile device (scan, confirm, reject).
//
// Typical desktop usage:
//
//	client := linksdk.NewClient("http://localhost:8080")
//	created, err := client.CreateHandshake(ctx, linksdk.CreateHandshakeRequest{})
//	// render created.QRPayload as a QR code, then wait:
//	final, err := client.PollUntilDone(ctx, created.ID, 0)
package linksdk
