// Command sensorlog records humidity and temperature pairs from the sensor
// sketch on a serial port into a data file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/humidity.report/internal/acquire"
	"github.com/banshee-data/humidity.report/internal/monitoring"
	"github.com/banshee-data/humidity.report/internal/serialmux"
	"github.com/banshee-data/humidity.report/internal/units"
	"github.com/banshee-data/humidity.report/internal/version"
)

var (
	device      = flag.String("device", "/dev/ttyACM0", "Serial device the sensor is attached to")
	baudRate    = flag.Int("baud", serialmux.DefaultBaudRate, "Serial baud rate")
	sensorPort  = flag.Int("port", 0, "Sensor number written in the first column of each row")
	appendRows  = flag.Bool("append", false, "Keep existing rows instead of truncating the data file")
	timezone    = flag.String("timezone", units.LocalTimezone, "Timezone of the written timestamps")
	listen      = flag.String("listen", "", "Address for the debug HTTP server (e.g. localhost:8081); empty disables it")
	listPorts   = flag.Bool("list", false, "List available serial ports and exit")
	debugFlag   = flag.Bool("debug", false, "Log unexpected serial lines")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

const helpArg = "HELP"

var errHelp = errors.New("help requested")

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] file.txt\n", filepath.Base(os.Args[0]))
	flag.PrintDefaults()
}

func extendedUsage() {
	fmt.Fprint(os.Stderr, `sensorlog reads alternating humidity and temperature lines from the sensor
sketch and appends one row per pair:
    <port> <YYYY-MM-DD> <HH:MM:SS> <humidity %> <temperature C>
It stops when the sketch prints "Done!", the port closes, or on Ctrl-C.

`)
	usage()
}

// checkArgs requires exactly one *.txt output file.
func checkArgs(args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("no data file given")
	}
	if len(args) == 1 && args[0] == helpArg {
		return "", errHelp
	}
	if len(args) > 1 {
		return "", fmt.Errorf("expected one data file, got %d", len(args))
	}
	if !strings.HasSuffix(args[0], ".txt") {
		return "", fmt.Errorf("%q is not a .txt data file", args[0])
	}
	return args[0], nil
}

// serveDebug runs the tsweb debug routes until ctx is done.
func serveDebug(ctx context.Context, wg *sync.WaitGroup, addr string, mux serialmux.SerialMuxInterface) {
	h := http.NewServeMux()
	serialmux.AttachAdminRoutes(h, mux)
	server := &http.Server{Addr: addr, Handler: h}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("debug server: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("debug server shutdown error: %v", err)
			server.Close()
		}
	}()
	log.Printf("Debug routes on http://%s/debug/", addr)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("sensorlog"))
		return
	}
	if *listPorts {
		ports, err := serialmux.ListPorts()
		if err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	path, err := checkArgs(flag.Args())
	if errors.Is(err, errHelp) {
		extendedUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	monitoring.SetDebug(*debugFlag)

	loc, err := units.LoadTimezone(*timezone)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	rec, err := acquire.NewRecorder(acquire.Config{
		Path:     path,
		Port:     *sensorPort,
		Append:   *appendRows,
		Location: loc,
	})
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	opts := serialmux.PortOptions{BaudRate: *baudRate}
	mux, err := serialmux.NewRealSerialMux(*device, opts)
	if err != nil {
		log.Fatalf("FATAL: open %s: %v", *device, err)
	}
	defer mux.Close()
	log.Printf("sensorlog %s reading %s, writing %s", version.Version, *device, path)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if *listen != "" {
		serveDebug(ctx, &wg, *listen, mux)
	}

	runErr := rec.Run(ctx, mux)
	stop()
	wg.Wait()

	if runErr != nil {
		log.Fatalf("FATAL: %v", runErr)
	}
	log.Printf("Recorded %d row(s) to %s", rec.Rows(), path)
}
