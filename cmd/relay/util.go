package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/SimonRichardson/flagset"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func usageFor(fs *flagset.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "usage: %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, " flags:\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

// parseAddr splits a listen address of the shape [scheme://]host[:port]
// into a network and an address, defaulting the port where absent.
func parseAddr(addr string, defaultPort int) (network, address string, err error) {
	u := addr
	network = "tcp"
	if index := strings.Index(u, "://"); index >= 0 {
		network = u[:index]
		u = u[index+3:]
	}

	host, port := u, strconv.Itoa(defaultPort)
	if index := strings.LastIndex(u, ":"); index >= 0 {
		host = u[:index]
		if p := u[index+1:]; p != "" {
			port = p
		}
	}
	if host == "[::]" || host == "" {
		host = "0.0.0.0"
	}
	if _, err = strconv.Atoi(port); err != nil {
		return "", "", errors.Errorf("invalid port %q", port)
	}

	return network, fmt.Sprintf("%s:%s", host, port), nil
}

// envName turns a flag name into the environment variable consulted for its
// default.
func envName(name string) string {
	return strings.ToUpper(strings.Replace(name, ".", "_", -1))
}

func registerMetrics(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}

func registerProfile(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}
