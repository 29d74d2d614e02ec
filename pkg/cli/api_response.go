package cli

type APIResponse interface {
	Print() error
	Err() error
}
