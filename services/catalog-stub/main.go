// Command catalog-stub stands in for the upstream grocery API during local
// runs. Point CATALOG_URL at it and flip the chaos switches to watch the
// concierge API's circuit breaker react.
package main

import (
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/ashendes/welcome-home/internal/catalogstub"
	"github.com/ashendes/welcome-home/internal/logging"
)

func main() {
	port := flag.String("port", "4100", "listen port")
	failureRate := flag.Float64("failure-rate", 0, "share of product requests to fail with 503")
	slow := flag.Duration("slow", 0, "delay added to every product request")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logging.Setup("catalog-stub", *level)

	stub := catalogstub.New(catalogstub.DefaultProducts())
	stub.SetFailureRate(*failureRate)
	stub.SetSlowDelay(*slow)

	log.WithFields(log.Fields{
		"port":         *port,
		"failure_rate": *failureRate,
		"slow":         slow.String(),
	}).Info("Catalog stub starting")

	if err := stub.Router().Run(":" + *port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
