package mocks

import (
	"net"

	"github.com/stretchr/testify/mock"
)

// SecurityLayer is a mock implementation of model.SecurityLayer.
type SecurityLayer struct {
	mock.Mock
}

func NewSecurityLayer(t interface {
	mock.TestingT
	Cleanup(func())
}) *SecurityLayer {
	m := &SecurityLayer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SecurityLayer) Listen(protocol, addr string) (net.Listener, error) {
	args := m.Called(protocol, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(net.Listener), args.Error(1)
}
