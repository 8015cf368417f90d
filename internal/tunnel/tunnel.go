// Package tunnel exposes the local listener on a public HTTPS URL. No auth
// is added at this layer; the identity provider owns authentication.
package tunnel

import (
	"context"
	"fmt"

	"golang.ngrok.com/ngrok"
	ngrokconfig "golang.ngrok.com/ngrok/config"
)

// Open dials the tunnel service and returns a listener whose URL method
// reports the public address.
func Open(ctx context.Context, authtoken string) (ngrok.Tunnel, error) {
	tun, err := ngrok.Listen(ctx,
		ngrokconfig.HTTPEndpoint(),
		ngrok.WithAuthtoken(authtoken),
	)
	if err != nil {
		return nil, fmt.Errorf("open tunnel: %w", err)
	}
	return tun, nil
}
