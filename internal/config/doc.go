// Package config provides configuration parsing for the vstore command.
//
// The configuration is stored in vstore.json, vstore.yaml or vstore.yml.
// Every field is optional; missing values fall back to defaults.
//
// # Configuration File Structure
//
//	log:
//	  level: debug
//	  format: json
//	inspect:
//	  addr: localhost:7070
//	  metrics: true
//	  metricsPath: /metrics
//	  namespace: myapp
//	bench:
//	  listeners: 100
//	  writes: 10000
//	  writers: 4
//	scheduler:
//	  maxPasses: 100
//	tracing:
//	  enabled: true
//	  tracerName: myapp
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Inspector:", cfg.Inspect.Addr)
package config
