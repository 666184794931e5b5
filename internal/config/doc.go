// Package config loads reflex.json, the configuration file read by the
// reflex command.
//
// # Configuration File Structure
//
//	{
//	  "name": "counter",
//	  "server": {
//	    "host": "localhost",
//	    "port": 3000
//	  },
//	  "globals": {
//	    "title": "Counter"
//	  },
//	  "flush": {
//	    "slowThreshold": "10ms"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "reflex"
//	  },
//	  "log": {
//	    "level": "info"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
