package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"

	cprman "github.com/Jon-Bright/clkctl/cprman"
	fwclk "github.com/Jon-Bright/clkctl/fwclk"
	rpi "github.com/Jon-Bright/clkctl/rpi"
)

var port = flag.Int("port", 24643, "The port that the server should listen to")
var useFw = flag.Bool("fw", false, "Drive clocks via the firmware mailbox instead of the CM registers")
var oscFreq = flag.Uint64("oscfreq", 0, "The crystal frequency in Hz, 0 to use the detected board's")

// backend is what the line protocol talks to: either the register-level
// clock tree or the firmware's clock service.
type backend interface {
	names() []string
	rate(name string) (uint64, error)
	setRate(name string, hz uint64) error
	enable(name string) error
	disable(name string) error
	enabled(name string) (bool, error)
	parent(name string) (string, error)
	setParent(name string, idx int) error
}

type cmBackend struct {
	tree *cprman.Tree
}

func (b *cmBackend) names() []string {
	return b.tree.Names()
}

func (b *cmBackend) rate(name string) (uint64, error) {
	return b.tree.Rate(name)
}

func (b *cmBackend) setRate(name string, hz uint64) error {
	n, err := b.tree.LookupName(name)
	if err != nil {
		return err
	}
	return n.SetRate(hz, b.tree.ParentRate(n))
}

func (b *cmBackend) enable(name string) error {
	n, err := b.tree.LookupName(name)
	if err != nil {
		return err
	}
	return n.Enable()
}

func (b *cmBackend) disable(name string) error {
	n, err := b.tree.LookupName(name)
	if err != nil {
		return err
	}
	return n.Disable()
}

func (b *cmBackend) enabled(name string) (bool, error) {
	n, err := b.tree.LookupName(name)
	if err != nil {
		return false, err
	}
	return n.IsEnabled(), nil
}

func (b *cmBackend) parent(name string) (string, error) {
	n, err := b.tree.LookupName(name)
	if err != nil {
		return "", err
	}
	return n.Parent(), nil
}

func (b *cmBackend) setParent(name string, idx int) error {
	n, err := b.tree.LookupName(name)
	if err != nil {
		return err
	}
	k, ok := n.(*cprman.Clock)
	if !ok {
		return fmt.Errorf("%s has no parent mux", name)
	}
	return k.SetParentIndex(idx)
}

type fwBackend struct {
	clocks map[string]*fwclk.Clock
	order  []string
}

func newFwBackend(fw *fwclk.Firmware) *fwBackend {
	b := &fwBackend{clocks: make(map[string]*fwclk.Clock)}
	for _, c := range fwclk.Clocks(fw) {
		b.clocks[c.Name()] = c
		b.order = append(b.order, c.Name())
	}
	return b
}

func (b *fwBackend) lookup(name string) (*fwclk.Clock, error) {
	c, ok := b.clocks[name]
	if !ok {
		return nil, cprman.ErrUnknownClock
	}
	return c, nil
}

func (b *fwBackend) names() []string {
	return b.order
}

func (b *fwBackend) rate(name string) (uint64, error) {
	c, err := b.lookup(name)
	if err != nil {
		return 0, err
	}
	return c.GetRate()
}

func (b *fwBackend) setRate(name string, hz uint64) error {
	c, err := b.lookup(name)
	if err != nil {
		return err
	}
	return c.SetRate(hz)
}

func (b *fwBackend) enable(name string) error {
	c, err := b.lookup(name)
	if err != nil {
		return err
	}
	return c.Enable()
}

func (b *fwBackend) disable(name string) error {
	c, err := b.lookup(name)
	if err != nil {
		return err
	}
	return c.Disable()
}

func (b *fwBackend) enabled(name string) (bool, error) {
	c, err := b.lookup(name)
	if err != nil {
		return false, err
	}
	return c.IsEnabled()
}

func (b *fwBackend) parent(name string) (string, error) {
	return "", fmt.Errorf("the firmware doesn't expose clock parents")
}

func (b *fwBackend) setParent(name string, idx int) error {
	return fmt.Errorf("the firmware doesn't expose clock parents")
}

type Server struct {
	b backend
	l net.Listener
}

func NewServer(port int, b backend) (*Server, error) {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	log.Printf("Listening on port %d", port)
	return &Server{b, l}, nil
}

// runCommand executes one line of the protocol and returns the reply to send,
// without trailing newline.
func (s *Server) runCommand(cmd, parms string) (string, error) {
	t := strings.Fields(parms)
	switch {
	case cmd == "LIST":
		return strings.Join(s.b.names(), " "), nil
	case cmd == "RATE":
		if len(t) != 1 {
			return "", fmt.Errorf("RATE wants 1 parameter, got %d", len(t))
		}
		r, err := s.b.rate(t[0])
		if err != nil {
			return "", err
		}
		return strconv.FormatUint(r, 10), nil
	case cmd == "SETRATE":
		if len(t) != 2 {
			return "", fmt.Errorf("SETRATE wants 2 parameters, got %d", len(t))
		}
		hz, err := strconv.ParseUint(t[1], 10, 64)
		if err != nil {
			return "", fmt.Errorf("bad rate '%s': %v", t[1], err)
		}
		if err := s.b.setRate(t[0], hz); err != nil {
			return "", err
		}
		return "OK", nil
	case cmd == "ENABLE":
		if len(t) != 1 {
			return "", fmt.Errorf("ENABLE wants 1 parameter, got %d", len(t))
		}
		if err := s.b.enable(t[0]); err != nil {
			return "", err
		}
		return "OK", nil
	case cmd == "DISABLE":
		if len(t) != 1 {
			return "", fmt.Errorf("DISABLE wants 1 parameter, got %d", len(t))
		}
		if err := s.b.disable(t[0]); err != nil {
			return "", err
		}
		return "OK", nil
	case cmd == "STATUS":
		if len(t) != 1 {
			return "", fmt.Errorf("STATUS wants 1 parameter, got %d", len(t))
		}
		on, err := s.b.enabled(t[0])
		if err != nil {
			return "", err
		}
		if on {
			return "1", nil
		}
		return "0", nil
	case cmd == "PARENT":
		if len(t) == 1 {
			p, err := s.b.parent(t[0])
			if err != nil {
				return "", err
			}
			return p, nil
		}
		if len(t) != 2 {
			return "", fmt.Errorf("PARENT wants 1 or 2 parameters, got %d", len(t))
		}
		idx, err := strconv.Atoi(t[1])
		if err != nil {
			return "", fmt.Errorf("bad mux index '%s': %v", t[1], err)
		}
		if err := s.b.setParent(t[0], idx); err != nil {
			return "", err
		}
		return "OK", nil
	}
	return "", fmt.Errorf("unknown command: %s", cmd)
}

func (s *Server) handleConnection(c net.Conn) {
	log.Printf("Handling connection from %v", c.RemoteAddr())
	defer c.Close()
	r := bufio.NewReader(c)
	w := bufio.NewWriter(c)
	for {
		l, err := r.ReadString('\n')
		if err == io.EOF {
			log.Printf("EOF for connection %v", c.RemoteAddr())
			return
		}
		if err != nil {
			log.Printf("Error reading string for connection %v: %v", c.RemoteAddr(), err)
			return
		}
		l = strings.TrimSpace(l)
		log.Printf("Got line '%s'", l)
		t := strings.SplitN(l, " ", 2)
		cmd := strings.ToUpper(t[0])
		parms := ""
		if len(t) > 1 {
			parms = t[1]
		}
		if cmd == "QUIT" {
			return
		}
		reply, err := s.runCommand(cmd, parms)
		if err != nil {
			es := fmt.Sprintf("Error running %s: %v", cmd, err)
			log.Print(es)
			reply = "ERR: " + es
		}
		w.WriteString(reply + "\n")
		err = w.Flush()
		if err != nil {
			log.Printf("error writing reply: %v", err)
			return
		}
	}
}

func (s *Server) handleConnections() {
	for {
		conn, err := s.l.Accept()
		if err != nil {
			log.Printf("Error accepting connection: %v", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func main() {
	flag.Parse()
	rp, err := rpi.NewRPi()
	if err != nil {
		log.Fatalf("Failed RPi init: %v", err)
	}
	log.Printf("Running on a %s", rp.Name())

	var b backend
	if *useFw {
		b = newFwBackend(fwclk.New(rp))
	} else {
		mm, offs, err := rp.MapPeriph(rpi.CM_OFFSET, cprman.CprmanWindowSize)
		if err != nil {
			log.Fatalf("Failed mapping clock registers: %v", err)
		}
		regs, err := cprman.NewMmapRegs(mm, offs)
		if err != nil {
			log.Fatalf("Failed wrapping clock registers: %v", err)
		}
		osc := *oscFreq
		if osc == 0 {
			osc = rp.OscFreq()
		}
		b = &cmBackend{cprman.NewTree(regs, osc)}
	}

	s, err := NewServer(*port, b)
	if err != nil {
		log.Fatalf("Failed creating server: %v", err)
	}
	s.handleConnections()
}
