// Command udd is an interactive UDPMQ datagram tool. It speaks the
// protocol but will just as happily send raw text or hex, which makes
// it useful for poking at brokers with malformed input.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/bromq-dev/udpmq/pkg/client"
	"github.com/bromq-dev/udpmq/pkg/console"
	"github.com/bromq-dev/udpmq/pkg/packet"
)

var (
	bindAddr = flag.String("bind", "0.0.0.0:0", "local bind address")
	useTUI   = flag.Bool("tui", false, "run the full-screen interface")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <target>\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Interactive UDPMQ cli")
	fmt.Fprintln(os.Stderr, "\nFlags:")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	target := flag.Arg(0)

	if *useTUI {
		if err := runTUI(target, *bindAddr); err != nil {
			fmt.Fprintf(os.Stderr, "tui: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runLine(target, *bindAddr); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func runLine(target, bind string) error {
	c, err := client.Dial(client.Config{
		Target: target,
		Bind:   bind,
		Handler: func(frame *packet.Frame) {
			data, err := frame.Encode()
			if err != nil {
				return
			}
			fmt.Printf("\r< %d bytes: %s\n> ", len(data), console.Format(data))
		},
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		})),
	})
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("UDP sender ready -> %s\n", target)
	fmt.Println("Commands:")
	fmt.Println("  connect/pub/sub/...   Send a protocol packet")
	fmt.Println("  text <message>        Send raw text")
	fmt.Println("  hex <bytes>           Send hex (e.g. hex deadbeef)")
	fmt.Println("  file <path>           Send file contents")
	fmt.Println("  quit                  Exit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "quit", "exit":
			return scanner.Err()
		case "text":
			sendRaw(c, console.ParseTextWithEscapes(arg))
		case "hex":
			data, err := console.ParseHex(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid hex: %v\n", err)
				continue
			}
			sendRaw(c, data)
		case "file":
			data, err := os.ReadFile(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "file error: %v\n", err)
				continue
			}
			sendRaw(c, data)
		default:
			pkt, err := console.ParseCommand(line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				continue
			}
			msgID := c.NextMsgID()
			if err := c.Send(msgID, pkt); err != nil {
				fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
				continue
			}
			fmt.Printf("Sent #%d %s\n", msgID, console.FormatPacket(pkt))
		}
	}
	return scanner.Err()
}

func sendRaw(c *client.Client, data []byte) {
	if err := c.SendRaw(data); err != nil {
		fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
		return
	}
	fmt.Printf("Sent %d bytes\n", len(data))
}
