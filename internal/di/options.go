package di

import "context"

// RoleArn is an optional IAM role assumed for every AWS client
type RoleArn string

// Option is a function that configures the dependency injection container.
type Option func(*options)

// WithContext sets the context passed to providers that need one.
// The logger attached to the context is used by providers for logging.
func WithContext(ctx context.Context) Option {
	return func(opts *options) {
		opts.ctx = ctx
	}
}

// WithRoleArn makes AWS clients assume the given role
func WithRoleArn(arn string) Option {
	return func(opts *options) {
		opts.roleArn = RoleArn(arn)
	}
}

// WithProviders adds constructor functions to the dependency injection container.
// Each provider should be a constructor function that returns one or more values.
// Providers can declare dependencies as function parameters, which will be
// automatically resolved by the container.
//
// Example:
//
//	WithProviders(
//	    func() *Database { return &Database{} },
//	    func(db *Database) *Service { return &Service{DB: db} },
//	)
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

type options struct {
	ctx       context.Context
	roleArn   RoleArn
	providers []any
}
