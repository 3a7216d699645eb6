package combo

import (
	"context"
	"errors"
	"fmt"

	"github.com/mchmarny/navmenu/pkg/cascade"
)

// ErrUnknownForm is returned by NewForm for a form kind it cannot assemble.
var ErrUnknownForm = errors.New("combo: unknown form")

// Form names a cascade of catalogs used by an entry form.
type Form string

const (
	// FormTicket is the ticket form: aplicacion, then modulo of that aplicacion.
	FormTicket Form = "ticket"
)

// ParseForm returns the form named s.
func ParseForm(s string) (Form, error) {
	switch f := Form(s); f {
	case FormTicket:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownForm, s)
	}
}

// NewForm assembles the cascade of form and loads its root options.
func (c *Client) NewForm(ctx context.Context, form Form, opts ...cascade.Option) (*cascade.Controller, error) {
	var (
		levels []cascade.Level
		root   Type
	)
	switch form {
	case FormTicket:
		levels = []cascade.Level{
			{Name: "aplicacion"},
			{Name: "modulo", Fetch: c.ModulosFetcher()},
		}
		root = Aplicacion
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownForm, form)
	}

	ctrl, err := cascade.New(levels, opts...)
	if err != nil {
		return nil, err
	}
	items, err := c.Options(ctx, root)
	if err != nil {
		return nil, err
	}
	ctrl.SetRootOptions(items)
	return ctrl, nil
}
