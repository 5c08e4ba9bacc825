package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// RevokeToken adds a token's JTI to the revocation list.
func RevokeToken(ctx context.Context, db sqlx.ExtContext, jti string, expiresAt time.Time) error {
	_, err := exec(ctx, db,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?) ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt.UTC(),
	)
	if err != nil {
		return classify("revoking token", err)
	}

	// Opportunistically clean up expired revocations.
	_, _ = exec(ctx, db, `DELETE FROM revoked_tokens WHERE expires_at < ?`, time.Now().UTC())

	return nil
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func IsTokenRevoked(ctx context.Context, db sqlx.ExtContext, jti string) (bool, error) {
	var count int
	if err := get(ctx, db, &count, `SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti); err != nil {
		return false, classify("checking token revocation", err)
	}
	return count > 0, nil
}
