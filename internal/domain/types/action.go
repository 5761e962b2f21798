package types

const (
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"
	ActionRabbitReconnected       = "rabbitmq_reconnection_success"

	ActionDatabaseTransactionFailed = "database_transaction_failed"

	ActionMeterActivated   = "meter_activated"
	ActionMeterDeactivated = "meter_deactivated"
	ActionTripStarted      = "trip_started"
	ActionTripEnded        = "trip_ended"
	ActionTripAcknowledged = "trip_acknowledged"
	ActionTariffActivated  = "tariff_activated"
	ActionPositionDropped  = "position_dropped"
	ActionEventIgnored     = "meter_event_ignored"
	ActionTripRecorded     = "trip_recorded"
)
