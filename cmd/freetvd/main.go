// Command freetvd is the headless ARQ image transport engine.
//
/*------------------------------------------------------------------
 *
 * Purpose:   	Run the ARQ engine against a real audio device and
 *		expose its command/event interface over a line-based
 *		control socket, so a GUI (or a human with nc/socat) can
 *		drive it without linking against this repo.
 *
 *---------------------------------------------------------------*/
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/freetvgo/freetvgo/internal/arq"
	"github.com/freetvgo/freetvgo/internal/audiodev"
	"github.com/freetvgo/freetvgo/internal/config"
	"github.com/freetvgo/freetvgo/internal/discovery"
	"github.com/freetvgo/freetvgo/internal/engine"
	"github.com/freetvgo/freetvgo/internal/framer"
	"github.com/freetvgo/freetvgo/internal/logging"
	"github.com/freetvgo/freetvgo/internal/modemcodec"
	"github.com/freetvgo/freetvgo/internal/monitor"
	"github.com/freetvgo/freetvgo/internal/ptt"
)

func main() {
	cfg, err := config.ParseFlags(config.Default(), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(cfg.LogFile, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *log.Logger) error {
	if len(cfg.Callsign) == 0 || len(cfg.Callsign) > framer.CallsignBytes {
		return fmt.Errorf("freetvd: callsign must be 1-%d characters", framer.CallsignBytes)
	}
	var callsign [framer.CallsignBytes]byte
	copy(callsign[:], strings.ToUpper(cfg.Callsign))

	pttController, err := ptt.New(ptt.Config{
		Backend:      cfg.PTTBackend,
		SerialPort:   cfg.PTTDevice,
		GPIOChip:     cfg.PTTDevice,
		GPIOLine:     cfg.PTTGPIO,
		HamlibDevice: cfg.PTTDevice,
	})
	if err != nil {
		return fmt.Errorf("freetvd: ptt: %w", err)
	}
	defer pttController.Close()

	forward, err := modemcodec.OpenLibCodec2(modemcodec.Forward)
	if err != nil {
		return fmt.Errorf("freetvd: opening forward codec: %w", err)
	}
	control, err := modemcodec.OpenLibCodec2(modemcodec.Control)
	if err != nil {
		return fmt.Errorf("freetvd: opening control codec: %w", err)
	}

	transceiver := arq.NewTransceiver(forward, control, audiering_default_capacity, logger)
	transceiver.SetPTT(pttController)

	arqCfg := arq.DefaultConfig(callsign)
	arqCfg.ArqWaitTime = cfg.ArqWaitTime()
	arqCfg.RetransmitWaitTime = cfg.RetransmitWaitTime()
	arqCfg.QuietThreshold = cfg.QuietThreshold()
	arqEngine := arq.NewEngine(transceiver, arqCfg, logger)

	loop := engine.New(arqEngine, logger)

	if err := audiodev.Init(); err != nil {
		return fmt.Errorf("freetvd: %w", err)
	}
	defer audiodev.Terminate()

	stream, err := audiodev.Open(cfg.InputDevice, cfg.OutputDevice, 256, audiodev.ServiceTransceiver(transceiver))
	if err != nil {
		return fmt.Errorf("freetvd: opening audio stream: %w", err)
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return fmt.Errorf("freetvd: starting audio stream: %w", err)
	}
	defer stream.Stop()

	if cfg.MonitorPTYLog {
		mon, err := monitor.Open(logger)
		if err != nil {
			logger.Warn("failed to open monitor pty", "err", err)
		} else {
			defer mon.Close()
			logger.Info("monitor pty opened", "path", mon.SlaveName())
			go mon.Run(loop.Events())
		}
	}

	const controlPort = 7878
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", controlPort))
	if err != nil {
		return fmt.Errorf("freetvd: opening control socket: %w", err)
	}
	defer listener.Close()

	if cfg.DiscoveryEnabled {
		adv, err := discovery.Start(cfg.Callsign, controlPort, logger)
		if err != nil {
			logger.Warn("discovery failed to start", "err", err)
		} else {
			defer adv.Stop()
		}
	}

	go loop.Run()
	go acceptControlConns(listener, loop, logger)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	loop.Stop()
	return nil
}

const audiering_default_capacity = 256 * 5000

// acceptControlConns serves spec §6.3's upward interface over a simple
// line protocol: submit_payload/submit_retransmit/submit_test_frame/stop
// as commands, and an event line per engine.Event on the same
// connection (cmd/freetvd is the headless stand-in for the GUI module
// spec §1 puts out of scope).
func acceptControlConns(l net.Listener, loop *engine.Engine, logger *log.Logger) {
	for {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		go serveControlConn(conn, loop, logger)
	}
}

func serveControlConn(conn net.Conn, loop *engine.Engine, logger *log.Logger) {
	defer conn.Close()

	go streamEvents(conn, loop.Events())

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "submit_payload":
			if len(fields) < 2 {
				fmt.Fprintln(conn, "ERR missing path")
				continue
			}
			data, err := os.ReadFile(fields[1])
			if err != nil {
				fmt.Fprintf(conn, "ERR %v\n", err)
				continue
			}
			loop.SubmitPayload(data)
			fmt.Fprintln(conn, "OK")
		case "submit_retransmit":
			loop.SubmitRetransmitRequest()
			fmt.Fprintln(conn, "OK")
		case "submit_test_frame":
			loop.SubmitTestFrame()
			fmt.Fprintln(conn, "OK")
		case "stop":
			fmt.Fprintln(conn, "OK")
			loop.Stop()
			return
		default:
			fmt.Fprintf(conn, "ERR unknown command %q\n", fields[0])
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Debug("control connection read error", "err", err)
	}
}

func streamEvents(conn net.Conn, events <-chan engine.Event) {
	for ev := range events {
		switch ev.Kind {
		case engine.EventTransmitActive:
			fmt.Fprintf(conn, "EVENT TransmitActive %t\n", ev.Active)
		case engine.EventRxCallsign:
			fmt.Fprintf(conn, "EVENT RxCallsign %s\n", ev.Callsign)
		case engine.EventRxPayload:
			fmt.Fprintf(conn, "EVENT RxPayload %s\n", strconv.Itoa(len(ev.Payload)))
		case engine.EventRetransmitFailed:
			fmt.Fprintln(conn, "EVENT RetransmitFailed")
		case engine.EventTransmitRejected:
			fmt.Fprintf(conn, "EVENT TransmitRejected %s\n", ev.Reason)
		}
	}
}
