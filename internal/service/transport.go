package service

import "context"

// Transport carries one encoded request to the service and returns the
// encoded response. Retries and ordering belong to the implementation.
type Transport interface {
	Send(ctx context.Context, request []byte) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, request []byte) ([]byte, error)

func (f TransportFunc) Send(ctx context.Context, request []byte) ([]byte, error) {
	return f(ctx, request)
}

// Handler answers one encoded request. Server implements it.
type Handler interface {
	Handle(ctx context.Context, request []byte) ([]byte, error)
}

// Local returns a transport that calls h in process.
func Local(h Handler) Transport {
	return TransportFunc(h.Handle)
}
