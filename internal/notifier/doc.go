// Package notifier delivers composed contest digests to chat sinks.
//
// Sinks include a Discord-compatible webhook (the default), a Telegram bot,
// Twitter and a dry-run writer. Each sink enforces its own message length
// ceiling; a failed delivery is reported as a *DeliveryError.
package notifier
