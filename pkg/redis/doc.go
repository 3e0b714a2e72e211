// Package redis connects to a Redis server with ping verification and
// retry. It backs the Redis credential store when several storefront
// processes need to share one session.
package redis
