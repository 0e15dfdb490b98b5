package services

import (
	"context"
	"fmt"
	"sync"
)

// MockUserInfoProvider is an in-memory UserInfoProvider for tests
type MockUserInfoProvider struct {
	mu    sync.Mutex
	users map[string]*Auth0UserInfo

	// Err, when set, is returned by every lookup
	Err error
}

// NewMockUserInfoProvider creates an empty provider
func NewMockUserInfoProvider() *MockUserInfoProvider {
	return &MockUserInfoProvider{users: make(map[string]*Auth0UserInfo)}
}

// SetUser registers the identity returned for accessToken
func (m *MockUserInfoProvider) SetUser(accessToken string, info Auth0UserInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[accessToken] = &info
}

// GetUserInfo returns the registered identity
func (m *MockUserInfoProvider) GetUserInfo(ctx context.Context, accessToken string) (*Auth0UserInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.users[accessToken]
	if !ok {
		return nil, fmt.Errorf("userinfo endpoint returned status 401: unknown token")
	}
	copied := *info
	return &copied, nil
}
