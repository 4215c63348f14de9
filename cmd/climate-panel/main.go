// Command climate-panel is a terminal operator console for the climate
// controller: it follows telemetry on the serial link and sends setpoint
// commands.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sweeney/climate-controller/internal/link"
	"github.com/sweeney/climate-controller/internal/logic"
	"github.com/sweeney/climate-controller/internal/panel"
)

const helpText = `commands:
  +  -       target +/- 0.5 C
  +. -.      target +/- 0.1 C
  set <v>    set target (21.5 or 21,5)
  status     current readout
  stats      min/max/mean of recent readings
  quit
`

func main() {
	port := flag.String("port", "", "Serial port of the controller")
	baud := flag.Int("baud", link.DefaultBaudRate, "Baud rate")
	list := flag.Bool("list", false, "List serial ports and exit")
	target := flag.Float64("target", float64(logic.DefaultSetpoint().Default), "Target until the controller reports one")
	interval := flag.Duration("interval", 200*time.Millisecond, "Telemetry poll interval")
	readout := flag.Duration("readout", 2*time.Second, "Readout print interval (0 to disable)")

	flag.Parse()

	if *list || *port == "" {
		ports, err := link.Ports()
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		printPorts(os.Stdout, ports)
		if *port == "" && !*list {
			log.Fatalf("fatal: no port given (-port)")
		}
		return
	}

	if err := run(*port, *baud, float32(*target), *interval, *readout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(port string, baud int, target float32, interval, readout time.Duration) error {
	s, err := link.OpenMonitor(port, baud, link.DefaultTransmitTimeout)
	if err != nil {
		return err
	}
	defer s.Close()

	sess := panel.NewSession(s, target)
	fmt.Printf("connected to %s at %d baud, type help for commands\n", port, baud)

	poll := time.NewTicker(interval)
	defer poll.Stop()

	var readoutC <-chan time.Time
	if readout > 0 {
		rt := time.NewTicker(readout)
		defer rt.Stop()
		readoutC = rt.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runPanel(sess, s, readLines(os.Stdin), os.Stdout, poll.C, readoutC, sigCh)
}

// lineSource yields the newest received telemetry line, at most one per poll.
type lineSource interface {
	Poll() (string, bool)
}

// runPanel handles operator input and received telemetry until quit, end of
// input or a signal.
func runPanel(sess *panel.Session, src lineSource, input <-chan string, out io.Writer, poll, readout <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, exiting", s)
			return nil

		case line, ok := <-input:
			if !ok {
				return nil
			}
			switch cmd := strings.TrimSpace(line); cmd {
			case "":
			case "q", "quit", "exit":
				return nil
			case "help", "?":
				fmt.Fprint(out, helpText)
			case "status":
				fmt.Fprintln(out, panel.FormatView(sess.View()))
			case "stats":
				fmt.Fprintln(out, sess.Stats())
			default:
				if err := sess.Execute(cmd); err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					continue
				}
				fmt.Fprintf(out, "target %.1f C\n", sess.Target())
			}

		case <-poll:
			line, ok := src.Poll()
			if !ok {
				continue
			}
			adopted, err := sess.Observe(line)
			if err != nil {
				log.Printf("rx: %v", err)
				continue
			}
			if adopted {
				fmt.Fprintf(out, "target changed on device: %.1f C\n", sess.Target())
			}

		case <-readout:
			fmt.Fprintln(out, panel.FormatView(sess.View()))
		}
	}
}

// readLines forwards lines from r until EOF, then closes the channel.
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

func printPorts(w io.Writer, ports []string) {
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return
	}
	fmt.Fprintln(w, "serial ports:")
	for _, p := range ports {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
