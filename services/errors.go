package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed    = errors.New("validation failed")
	ErrPasswordTooShort    = errors.New("password is too short")
	ErrTeamNameRequired    = errors.New("team name is required")
	ErrUserAlreadyInTeam   = errors.New("user is already in a team")
	ErrUserNotInTeam       = errors.New("user is not in a team")
	ErrCannotRemoveCaptain = errors.New("cannot remove the team captain")
	ErrInviteExpired       = errors.New("invite has expired")
	ErrSlotInvalidWindow   = errors.New("slot end time must be after start time")
	ErrSlotWindowInPast    = errors.New("slot start time must be in the future")
	ErrSlotInvalidRegion   = errors.New("invalid region")
	ErrSlotNotPending      = errors.New("slot is not pending publication")
	ErrSlotNotCancellable  = errors.New("slot can no longer be cancelled")
	ErrTeamHasActiveSlots  = errors.New("team still has non-cancelled slots")

	// Исход неуспешного клейма: слот занят, отменён или не существует.
	// Не системная ошибка — повторять запись бессмысленно.
	ErrSlotNotClaimable   = errors.New("scrim slot is not claimable")
	ErrSlotAlreadyClaimed = errors.New("scrim slot was already taken")
	ErrOwnSlotClaim       = errors.New("a team cannot accept its own scrim slot")
	ErrSlotNotOpen        = errors.New("scrim slot is not open")

	// Ошибки конфликтов
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserNicknameConflict = errors.New("nickname is already in use")
	ErrTeamNameConflict     = errors.New("team name is already in use")
	ErrTeamTagConflict      = errors.New("team tag is already in use")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrCaptainActionForbidden = errors.New("only the team captain can perform this action")
	ErrSelfLeaveForbidden     = errors.New("only the team captain or the member themselves can perform this action")
	ErrTeamMembershipRequired = errors.New("user must belong to a team to perform this action")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound   = errors.New("user not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrGameNotFound   = errors.New("game not found")
	ErrSlotNotFound   = errors.New("scrim slot not found")
	ErrInviteNotFound = errors.New("invite not found")
)
