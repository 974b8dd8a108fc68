package identity

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/operativa/gestionale/internal"
	userdm "github.com/operativa/gestionale/internal/core/datamodel/user"
	"github.com/operativa/gestionale/pkg/logger"
)

// UserRepository is the database side of identity resolution.
type UserRepository interface {
	GetBySubject(ctx context.Context, subject string) (*userdm.User, error)
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

// Resolver reconciles bearer-token claims with the database-held
// authorization record. The database is authoritative for company binding,
// role and status; the token only proves who is calling.
type Resolver struct {
	accessVerifier   TokenVerifier
	identityVerifier TokenVerifier
	users            UserRepository
	logger           *slog.Logger
}

func NewResolver(accessVerifier, identityVerifier TokenVerifier, users UserRepository) *Resolver {
	return &Resolver{
		accessVerifier:   accessVerifier,
		identityVerifier: identityVerifier,
		users:            users,
		logger:           logger.LoggerWrapper(),
	}
}

// Resolve turns an Authorization header into an Identity. Verification is
// tried as an access token first, then as an identity token; callers get a
// single opaque rejection when both fail (no oracle about which strategy
// broke), with both causes logged server-side.
//
// A subject with no users row resolves to a degraded identity rather than
// an error: the authorization decision belongs downstream.
func (r *Resolver) Resolve(ctx context.Context, authorizationHeader string) (*Identity, error) {
	raw := extractBearer(authorizationHeader)
	if raw == "" {
		return nil, internal.ErrMissingToken
	}

	claims, accessErr := r.accessVerifier.Verify(raw)
	if accessErr != nil {
		var idErr error
		claims, idErr = r.identityVerifier.Verify(raw)
		if idErr != nil {
			r.logger.Warn("token verification failed for both strategies",
				"access_error", accessErr, "identity_error", idErr)
			return nil, internal.ErrInvalidToken
		}
	}

	ident := &Identity{
		Subject:   claims.Subject,
		Email:     claims.Email,
		CompanyID: claims.CompanyID,
		Role:      claims.Role,
	}

	rec, err := r.users.GetBySubject(ctx, claims.Subject)
	if err != nil {
		return nil, internal.NewInternalError("looking up identity record", err)
	}
	if rec == nil {
		// Not yet provisioned: proceed with token claims only, no company
		// binding to trust.
		r.logger.Info("subject has no user record; degraded identity", "subject", claims.Subject)
		ident.CompanyID = ""
		ident.Role = ""
		return ident, nil
	}

	ident.UserID = rec.ID
	ident.Email = rec.Email
	ident.CompanyID = rec.CompanyID
	ident.Status = rec.Status
	if rec.RoleID != nil {
		ident.Role = *rec.RoleID
	}

	r.touchLastLoginAsync(rec.ID)
	return ident, nil
}

// touchLastLoginAsync updates last_login_at off the request path; a failure
// must not fail the request.
func (r *Resolver) touchLastLoginAsync(userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.users.TouchLastLogin(ctx, userID, time.Now()); err != nil {
			r.logger.Warn("updating last login failed", "user_id", userID, "error", err)
		}
	}()
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
