// Package client implements the public eight-operation surface of
// vaultbox: account creation and authentication on Client, and the six
// file operations on the User handle those return.
//
// The facade owns three jobs and nothing else: argument validation,
// sequencing the identity/file/sharing layers, and translating every
// internal failure into the single *DropboxError callers see.
package client

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/brown-csci1660/vaultbox/internal/dataserver"
	"github.com/brown-csci1660/vaultbox/internal/identity"
	"github.com/brown-csci1660/vaultbox/internal/keyserver"
	"github.com/brown-csci1660/vaultbox/internal/logger"
	"github.com/brown-csci1660/vaultbox/internal/metrics"
	"github.com/brown-csci1660/vaultbox/internal/telemetry"
	"github.com/brown-csci1660/vaultbox/internal/vaulterrors"
)

var validate = validator.New()

// Client binds the facade to a dataserver and keyserver pair. It holds no
// user state: sessions live in the User handles returned by CreateUser
// and AuthenticateUser.
type Client struct {
	store   dataserver.Store
	dir     keyserver.Directory
	metrics *metrics.FacadeMetrics
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics attaches facade metrics. A nil FacadeMetrics is accepted
// and records nothing.
func WithMetrics(m *metrics.FacadeMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a Client over the given stores.
func New(store dataserver.Store, dir keyserver.Directory, opts ...Option) *Client {
	c := &Client{store: store, dir: dir}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// run executes one facade operation with logging, tracing, metrics, and
// the error-boundary translation applied uniformly.
func (c *Client) run(ctx context.Context, lc *logger.LogContext, fn func(ctx context.Context) error) error {
	op := lc.Operation

	ctx, span := telemetry.StartOperationSpan(ctx, op, lc.Username)
	defer span.End()
	ctx = logger.WithContext(ctx, lc.WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx)))

	c.metrics.RecordOperationStart(op)
	defer c.metrics.RecordOperationEnd(op)

	err := fn(ctx)
	if err != nil {
		wrapped := wrap(err)
		code, _ := Code(wrapped)
		telemetry.RecordError(ctx, wrapped)
		logger.WarnCtx(ctx, "operation failed",
			logger.KeyErrorCode, code.String(),
			logger.KeyError, wrapped.Error(),
			logger.KeyDurationMs, lc.DurationMs(),
		)
		c.metrics.RecordOperation(op, code.String(), time.Since(lc.StartTime))
		return wrapped
	}

	logger.InfoCtx(ctx, "operation completed", logger.KeyDurationMs, lc.DurationMs())
	c.metrics.RecordOperation(op, "ok", time.Since(lc.StartTime))
	return nil
}

func validateCredentials(username, password string) error {
	if err := validate.Var(username, "required"); err != nil {
		return vaulterrors.NewBadArgumentError("username must not be empty")
	}
	if err := validate.Var(password, "required"); err != nil {
		return vaulterrors.NewBadArgumentError("password must not be empty")
	}
	return nil
}

// CreateUser registers a new account and returns a live User handle.
func (c *Client) CreateUser(ctx context.Context, username, password string) (*User, error) {
	var user *User
	err := c.run(ctx, logger.NewLogContext(username, "create_user"), func(ctx context.Context) error {
		if err := validateCredentials(username, password); err != nil {
			return err
		}
		id, err := identity.CreateUser(c.store, c.dir, username, password)
		if err != nil {
			return err
		}
		user = &User{client: c, id: id}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// AuthenticateUser recovers an account from its credentials and returns
// a live User handle. Wrong password and unknown username are
// indistinguishable in the returned error.
func (c *Client) AuthenticateUser(ctx context.Context, username, password string) (*User, error) {
	var user *User
	err := c.run(ctx, logger.NewLogContext(username, "authenticate_user"), func(ctx context.Context) error {
		if err := validateCredentials(username, password); err != nil {
			return err
		}
		id, err := identity.AuthenticateUser(c.store, c.dir, username, password)
		if err != nil {
			return err
		}
		user = &User{client: c, id: id}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
