// Package sovdevlogger is a structured telemetry client library that
// projects a small call-site API into signals conforming to the
// "Loggeloven av 2025" governance standard.
//
// # Overview
//
// A caller initializes the module once per process with [Initialize],
// then records transactions, batch job lifecycle events and batch
// progress with [Log], [LogJobStatus] and [LogJobProgress]. Each call
// is fanned out to every enabled sink:
//
//   - a canonical JSON record on the process error stream
//   - the same record appended to rotating files on disk
//   - an OpenTelemetry log record over OTLP/HTTP
//   - a span on a bounded trace
//   - increments/durations on four fixed metric instruments
//
// # Quick Start
//
//	err := sovdevlogger.Initialize("my-service", "1.0.0", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sovdevlogger.Flush(context.Background(), 0)
//
//	sovdevlogger.Log(sovdevlogger.LevelInfo, "lookup", "looking up company",
//	    sovdevlogger.Internal, sovdevlogger.CallDetails{
//	        Input: map[string]any{"orgnr": "971277882"},
//	    })
//
// # Peer Services
//
// Callers that talk to external systems declare stable constants with
// [CreatePeerServices] and pass the resulting mapping to [Initialize]:
//
//	peers := sovdevlogger.CreatePeerServices(map[string]string{
//	    "BRREG": "SYS1234567",
//	})
//	sovdevlogger.Initialize("my-service", "1.0.0", peers)
//	sovdevlogger.Log(sovdevlogger.LevelInfo, "lookup", "looking up company",
//	    "BRREG", sovdevlogger.CallDetails{})
//
// # Configuration
//
// All transport selection is environment-driven (see [Initialize] and
// the package-level doc comments on config.go's resolver); there is no
// programmatic Config type to construct. Smart defaults mean a bare
// `Initialize` call with no environment variables set produces a
// console-only logger. When no OTLP endpoint is configured,
// SOVDEV_DEV_EXPORTER selects what traces/metrics fall back to
// ("stdout", "prometheus", or "none", the default).
//
// # Thread Safety
//
// [Log], [LogJobStatus], [LogJobProgress], [Flush] and
// [GenerateTraceID] are safe for concurrent use once [Initialize] has
// returned. [Initialize] itself must not race with any other exported
// function — call it once, early, from a single goroutine.
package sovdevlogger
