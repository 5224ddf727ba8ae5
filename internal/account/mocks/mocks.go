// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package mocks provides testify mocks for the account package interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/keygate/keygate/internal/account"
)

// MockRepository is a mock implementation of account.Repository.
type MockRepository struct {
	mock.Mock
}

// NewMockRepository creates a MockRepository that asserts its expectations
// when the test finishes.
func NewMockRepository(t *testing.T) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRepository) Create(ctx context.Context, acct *account.Account) error {
	args := m.Called(ctx, acct)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if acct, ok := args.Get(0).(*account.Account); ok {
		return acct, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	args := m.Called(ctx, email)
	if acct, ok := args.Get(0).(*account.Account); ok {
		return acct, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetByVerificationToken(ctx context.Context, token string) (*account.Account, error) {
	args := m.Called(ctx, token)
	if acct, ok := args.Get(0).(*account.Account); ok {
		return acct, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetByResetToken(ctx context.Context, token string) (*account.Account, error) {
	args := m.Called(ctx, token)
	if acct, ok := args.Get(0).(*account.Account); ok {
		return acct, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, acct *account.Account) error {
	args := m.Called(ctx, acct)
	return args.Error(0)
}

func (m *MockRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// MockPasswordHasher is a mock implementation of account.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher that asserts its
// expectations when the test finishes.
func NewMockPasswordHasher(t *testing.T) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

// MockCredentialSigner is a mock implementation of account.CredentialSigner.
type MockCredentialSigner struct {
	mock.Mock
}

// NewMockCredentialSigner creates a MockCredentialSigner that asserts its
// expectations when the test finishes.
func NewMockCredentialSigner(t *testing.T) *MockCredentialSigner {
	m := &MockCredentialSigner{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCredentialSigner) Issue(id ulid.ULID, username string) (string, error) {
	args := m.Called(id, username)
	return args.String(0), args.Error(1)
}

// MockNotifier is a mock implementation of account.Notifier.
type MockNotifier struct {
	mock.Mock
}

// NewMockNotifier creates a MockNotifier that asserts its expectations when
// the test finishes.
func NewMockNotifier(t *testing.T) *MockNotifier {
	m := &MockNotifier{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockNotifier) SendVerification(ctx context.Context, acct *account.Account, token string) error {
	args := m.Called(ctx, acct, token)
	return args.Error(0)
}

func (m *MockNotifier) SendPasswordReset(ctx context.Context, acct *account.Account, token string) error {
	args := m.Called(ctx, acct, token)
	return args.Error(0)
}

// Interface conformance checks.
var (
	_ account.Repository       = (*MockRepository)(nil)
	_ account.PasswordHasher   = (*MockPasswordHasher)(nil)
	_ account.CredentialSigner = (*MockCredentialSigner)(nil)
	_ account.Notifier         = (*MockNotifier)(nil)
)
