package services

import (
	"context"
	"errors"
	"testing"
)

func TestRegister(t *testing.T) {
	t.Run("creates a player with hashed password", func(t *testing.T) {
		users := newFakeUserRepo()
		service := NewAuthService(users)

		user, err := service.Register(context.Background(), RegisterInput{
			Nickname: "fragger",
			Email:    "fragger@example.com",
			Password: "correct horse",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ID == 0 {
			t.Error("user ID must be assigned")
		}
		if user.PasswordHash != "" {
			t.Error("password hash must not be returned")
		}

		stored, _ := users.GetByID(context.Background(), user.ID)
		if stored.PasswordHash == "" || stored.PasswordHash == "correct horse" {
			t.Error("stored password must be hashed")
		}
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		service := NewAuthService(newFakeUserRepo())

		_, err := service.Register(context.Background(), RegisterInput{
			Nickname: "fragger",
			Email:    "fragger@example.com",
			Password: "short",
		})
		if !errors.Is(err, ErrPasswordTooShort) {
			t.Fatalf("error = %v, want ErrPasswordTooShort", err)
		}
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		users := newFakeUserRepo()
		service := NewAuthService(users)

		input := RegisterInput{
			Nickname: "fragger",
			Email:    "fragger@example.com",
			Password: "correct horse",
		}
		if _, err := service.Register(context.Background(), input); err != nil {
			t.Fatalf("first registration failed: %v", err)
		}

		input.Nickname = "other"
		_, err := service.Register(context.Background(), input)
		if !errors.Is(err, ErrAuthEmailTaken) {
			t.Fatalf("error = %v, want ErrAuthEmailTaken", err)
		}
	})
}

func TestLogin(t *testing.T) {
	users := newFakeUserRepo()
	service := NewAuthService(users)

	if _, err := service.Register(context.Background(), RegisterInput{
		Nickname: "fragger",
		Email:    "fragger@example.com",
		Password: "correct horse",
	}); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		user, err := service.Login(context.Background(), LoginInput{
			Email:    "fragger@example.com",
			Password: "correct horse",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.PasswordHash != "" {
			t.Error("password hash must not be returned")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Login(context.Background(), LoginInput{
			Email:    "fragger@example.com",
			Password: "wrong horse",
		})
		if !errors.Is(err, ErrAuthInvalidCredentials) {
			t.Fatalf("error = %v, want ErrAuthInvalidCredentials", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := service.Login(context.Background(), LoginInput{
			Email:    "nobody@example.com",
			Password: "correct horse",
		})
		if !errors.Is(err, ErrAuthInvalidCredentials) {
			t.Fatalf("error = %v, want ErrAuthInvalidCredentials", err)
		}
	})
}
