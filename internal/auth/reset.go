package auth

import (
	"context"
	"fmt"

	"github.com/urbancart/urbancart-backend/pkg/db"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
	"github.com/urbancart/urbancart-backend/pkg/security"
)

const (
	// ResetRequestedMessage is returned whether or not the email matched.
	ResetRequestedMessage = "If an account exists for this email, a reset link has been sent."
	ResetCompletedMessage = "Password has been reset successfully."

	invalidResetLinkMessage = "Invalid or expired reset link"
	passwordMismatchMessage = "Passwords do not match"
)

func resetSubject(user *models.User) security.ResetSubject {
	return security.ResetSubject{
		UserID:       user.ID,
		PasswordHash: user.PasswordHash,
		LastLoginAt:  user.LastLoginAt,
	}
}

// RequestPasswordReset mails a reset link when the account exists. Lookup and
// delivery failures are logged and never surfaced.
func (s *service) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !db.IsNotFound(err) {
			s.logg.Error(ctx, "auth.reset_lookup_failed", err)
		}
		return nil
	}

	token := s.resetTokens.Make(resetSubject(user))
	link := fmt.Sprintf("%s/reset-password/%s/%s", s.siteURL, security.EncodeUID(user.ID), token)

	ctx = s.logg.WithUserID(ctx, user.ID.String())
	if err := s.notifier.PasswordReset(ctx, user, link, s.resetTTL); err != nil {
		s.logg.Error(ctx, "email.send_failed", err)
		return nil
	}
	s.logg.Info(ctx, "auth.reset_link_sent")
	return nil
}

// ConfirmPasswordReset sets a new password and signs the user out everywhere.
func (s *service) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirm) error {
	userID, err := security.DecodeUID(req.UID)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, invalidResetLinkMessage)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeValidation, invalidResetLinkMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if err := s.resetTokens.Check(resetSubject(user), req.Token); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, invalidResetLinkMessage)
	}
	if req.NewPassword != req.ConfirmPassword {
		return pkgerrors.New(pkgerrors.CodeValidation, passwordMismatchMessage)
	}
	if err := security.ValidatePasswordStrength(req.NewPassword); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}

	ctx = s.logg.WithUserID(ctx, user.ID.String())
	if err := s.session.RevokeAll(ctx, user.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke sessions")
	}
	s.logg.Info(ctx, "auth.password_reset")
	return nil
}
