// Package metrics defines and registers photocore's Prometheus metrics.
//
// Metrics are grouped by the component that owns them:
//
//   - Fragment Engine: commit counts by outcome, commit duration
//   - Catalog: album mutation counts by operation and outcome, files
//     uploaded
//   - Deletion journal: pending depth, replay duration at startup,
//     commands finished by trigger (run vs restore)
//   - Upload orchestration: commit outcomes, orphaned derivatives swept
//
// All metrics register themselves at package init via
// prometheus.MustRegister. Handler returns the promhttp handler for
// mounting under /metrics. Timer is a small helper for recording
// operation duration into a histogram or histogram vec.
package metrics
