package connection

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("connection: key not found")

// Client is a MerkleKV protocol client over a single TCP connection.
type Client struct {
	conn    net.Conn
	br      *bufio.Reader
	timeout time.Duration
}

// Dial connects to a MerkleKV server. timeout applies to the dial and
// to each subsequent command round trip.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("connection: dial %s: %w", addr, err)
	}
	return &Client{
		conn:    conn,
		br:      bufio.NewReader(conn),
		timeout: timeout,
	}, nil
}

// Close closes the connection without sending QUIT.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Do sends one command line and returns the single response line.
// ERROR responses come back as Go errors.
func (c *Client) Do(cmd string) (string, error) {
	if err := c.send(cmd); err != nil {
		return "", err
	}
	return c.recv()
}

// Keys sends KEYS and returns the key list.
func (c *Client) Keys() ([]string, error) {
	if err := c.send("KEYS"); err != nil {
		return nil, err
	}
	header, err := c.recv()
	if err != nil {
		return nil, err
	}
	count, ok := strings.CutPrefix(header, "KEYS ")
	if !ok {
		return nil, fmt.Errorf("connection: unexpected KEYS response %q", header)
	}
	n, err := strconv.Atoi(count)
	if err != nil {
		return nil, fmt.Errorf("connection: bad KEYS count %q: %w", count, err)
	}
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		k, err := c.recv()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Get fetches a value, translating NOT_FOUND to ErrNotFound.
func (c *Client) Get(key string) (string, error) {
	resp, err := c.Do("GET " + key)
	if err != nil {
		return "", err
	}
	if resp == "NOT_FOUND" {
		return "", ErrNotFound
	}
	value, ok := strings.CutPrefix(resp, "VALUE ")
	if !ok {
		return "", fmt.Errorf("connection: unexpected GET response %q", resp)
	}
	return value, nil
}

func (c *Client) send(cmd string) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	if _, err := c.conn.Write([]byte(cmd + "\r\n")); err != nil {
		return fmt.Errorf("connection: write: %w", err)
	}
	return nil
}

func (c *Client) recv() (string, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", err
	}
	line, err := c.br.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("connection: read: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if msg, ok := strings.CutPrefix(line, "ERROR "); ok {
		return "", errors.New(msg)
	}
	return line, nil
}
