// Package telemetry installs OpenTelemetry trace and meter providers that
// export over OTLP.
//
// The pipeline packages create spans and instruments through the global
// otel API. Until New runs with Enabled set, those are no-ops; afterwards
// spans from corpus search, validation, prompt assembly and benchmark runs
// are exported to the configured collector, and log lines written with a
// span context carry its trace and span IDs.
//
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer tel.Shutdown(context.Background())
package telemetry
