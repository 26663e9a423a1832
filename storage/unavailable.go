package storage

import "context"

// UnavailableBackend stands in for a store that could not be opened. Every
// read and write fails with the open error, so collections start empty and
// later saves are reported instead of stopping the server.
type UnavailableBackend struct {
	err error
}

func NewUnavailableBackend(err error) *UnavailableBackend {
	return &UnavailableBackend{err: err}
}

func (u *UnavailableBackend) Read(ctx context.Context, key string) ([]byte, error) {
	return nil, u.err
}

func (u *UnavailableBackend) Write(ctx context.Context, key string, data []byte) error {
	return u.err
}

func (u *UnavailableBackend) Close() error {
	return nil
}
