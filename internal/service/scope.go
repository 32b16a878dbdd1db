package service

// AccountScope identifies the tenant and the authenticated actor behind a
// request. Every service call is evaluated inside exactly one scope.
type AccountScope struct {
	AccountID uint
	ActorID   uint
	Role      string
}
