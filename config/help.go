package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `taximeter - taxi fare meter service

Usage:
  taximeter [-config-path config.yaml]
  taximeter -help

Flags:
  -config-path   path to the YAML config file (default config.yaml)
  -help          print this message

Every setting may be overridden by an environment variable of the same
name (nested YAML keys are joined with "_": meter.queue_size -> METER_QUEUE_SIZE).
A .env file in the working directory is loaded first.

Endpoints:
  GET  /health, /metrics, /ws/display
  GET  /meter, /meter/receipt, /tariffs, /tariffs/{name}
  POST /meter/activate, /meter/deactivate
  POST /meter/trip/start, /meter/trip/end, /meter/trip/acknowledge
  POST /meter/positions
  PUT  /tariffs/{name}
  POST /tariffs/{name}/activate
  GET  /reports/day?date=YYYY-MM-DD, /reports/month?date=YYYY-MM
  GET  /reports/range?from=&to=, /trips?from=&to=&limit=
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}
