package services

import (
	"context"
)

type AuthService struct{ f *Facade }

// Login exchanges email and password for the user profile and a token pair.
func (s AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	if err := s.f.CallInto(ctx, "auth.login", Args{Body: Credentials{Email: email, Password: password}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. data is sent as-is.
func (s AuthService) Register(ctx context.Context, data any) (*AuthResult, error) {
	var out AuthResult
	if err := s.f.CallInto(ctx, "auth.register", Args{Body: data}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s AuthService) Profile(ctx context.Context) (*User, error) {
	var out User
	if err := s.f.CallInto(ctx, "auth.profile", Args{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s AuthService) UpdateProfile(ctx context.Context, data any) (*User, error) {
	var out User
	if err := s.f.CallInto(ctx, "auth.update_profile", Args{Body: data}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
