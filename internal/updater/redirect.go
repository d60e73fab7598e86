package updater

import (
	"errors"
	"fmt"
	"net/http"
)

const DefaultMaxRedirects = 10

var (
	ErrTooManyRedirects = errors.New("redirect loop detected")
	ErrInsecureRedirect = errors.New("redirect downgrades to plain http")
)

// RedirectPolicy bounds the redirect chain and refuses to follow an https
// request to a non-https location.
func RedirectPolicy(maxRedirects int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: exceeded %d hops (last URL: %s)",
				ErrTooManyRedirects, maxRedirects, via[len(via)-1].URL)
		}
		if len(via) > 0 && via[0].URL.Scheme == "https" && req.URL.Scheme != "https" {
			return fmt.Errorf("%w: %s", ErrInsecureRedirect, req.URL)
		}
		return nil
	}
}
