// Package servicebus is a minimal client for the Service Bus management API,
// covering what's needed to report on queues: listing them, discovering the
// metrics they support and querying rollups of those metrics.
//
package servicebus
