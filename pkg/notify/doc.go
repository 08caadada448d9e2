/*
Package notify routes alerts.Alert values to notification channels
(Email, Webhook, Slack, Log). Router implements alerts.Notifier, so an
alerts.Engine can hand it fired/resolved alerts without importing any
channel implementation.

Routing rules select channels by severity set, label equality, and a
glob over the rule name; the union of every matching rule's channels
is used, deduplicated, and falls back to every enabled channel when no
rule matches. Template selection follows rule template, then
default_<severity>, then default. Each channel send is retried up to
RetryAttempts times with RetryDelay between attempts; a channel's
failure is recorded on the alert and never affects another channel.
*/
package notify
