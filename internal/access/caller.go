// Package access resolves who is calling and decides what they may do.
package access

import (
	"context"

	corpentity "github.com/ovaphlow/pitchfork/service-community/internal/corporation/entity"
	userentity "github.com/ovaphlow/pitchfork/service-community/internal/user/entity"
)

// Caller is the authenticated identity behind a request. It is either an
// Individual or a CorporateRepresentative; no other implementations exist.
type Caller interface {
	Account() *userentity.User
	caller()
}

// Individual is a user without a corporation.
type Individual struct {
	User *userentity.User
}

// CorporateRepresentative is a user acting for the corporation it is linked to.
type CorporateRepresentative struct {
	User        *userentity.User
	Corporation *corpentity.Corporation
}

func (i Individual) Account() *userentity.User              { return i.User }
func (c CorporateRepresentative) Account() *userentity.User { return c.User }

func (Individual) caller()              {}
func (CorporateRepresentative) caller() {}

// NewCaller picks the variant from the user's corporation link.
func NewCaller(u *userentity.User, corp *corpentity.Corporation) Caller {
	if corp != nil {
		return CorporateRepresentative{User: u, Corporation: corp}
	}
	return Individual{User: u}
}

type ctxKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the caller stored by the authentication middleware.
func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	return c, ok && c != nil
}
