package opcua

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ghalamif/SimRecorder/internal/domain"
)

// Config captures the runtime details required to open an OPC UA session.
type Config struct {
	Endpoint          string        `yaml:"endpoint"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	SecurityMode      string        `yaml:"security_mode"`
	SecurityPolicy    string        `yaml:"security_policy"`
	ApplicationName   string        `yaml:"application_name"`
	PublishInterval   time.Duration `yaml:"publish_interval"`
	SamplingInterval  time.Duration `yaml:"sampling_interval"`
	SessionInfoNodeID string        `yaml:"session_info_node_id"`
	Nodes             []NodeConfig  `yaml:"nodes"`
}

// NodeConfig maps a monitored node onto one telemetry channel.
type NodeConfig struct {
	NodeID  string `yaml:"node_id"`
	Channel string `yaml:"channel"`
	Type    string `yaml:"type"`
	Count   int    `yaml:"count"`
}

func (c *Config) ApplyDefaults() {
	if c.SecurityMode == "" {
		c.SecurityMode = "None"
	}
	if c.SecurityPolicy == "" {
		c.SecurityPolicy = "None"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "SimRecorder"
	}
	if c.PublishInterval <= 0 {
		c.PublishInterval = 250 * time.Millisecond
	}
	if c.SamplingInterval < 0 {
		c.SamplingInterval = 0
	}
	for i := range c.Nodes {
		if c.Nodes[i].Channel == "" {
			c.Nodes[i].Channel = channelFromNodeID(c.Nodes[i].NodeID)
		}
		if c.Nodes[i].Type == "" {
			c.Nodes[i].Type = "double"
		}
		if c.Nodes[i].Count == 0 {
			c.Nodes[i].Count = 1
		}
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if len(c.Nodes) == 0 {
		return errors.New("at least one node must be configured")
	}
	seen := make(map[string]struct{}, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.NodeID == "" {
			return errors.New("node_id is required")
		}
		if _, err := domain.ParseVarType(n.Type); err != nil {
			return fmt.Errorf("node %s: %w", n.NodeID, err)
		}
		if n.Count < 1 {
			return fmt.Errorf("node %s: count must be positive", n.NodeID)
		}
		if _, dup := seen[n.Channel]; dup {
			return fmt.Errorf("channel %s is mapped twice", n.Channel)
		}
		seen[n.Channel] = struct{}{}
	}
	return nil
}

// Channels returns the catalog described by the node list. Call after
// ApplyDefaults and Validate.
func (c *Config) Channels() []domain.ChannelDesc {
	out := make([]domain.ChannelDesc, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		vt, _ := domain.ParseVarType(n.Type)
		out = append(out, domain.ChannelDesc{Name: n.Channel, Type: vt, Count: n.Count})
	}
	return out
}

// TickRate is the number of publish cycles per second, at least 1.
func (c *Config) TickRate() int {
	if c.PublishInterval <= 0 {
		return 1
	}
	rate := int((time.Second + c.PublishInterval/2) / c.PublishInterval)
	if rate < 1 {
		return 1
	}
	return rate
}

// channelFromNodeID uses the identifier part of a string node id, so that
// "ns=2;s=Sim.FuelLevel" becomes "FuelLevel".
func channelFromNodeID(id string) string {
	if i := strings.LastIndex(id, "s="); i >= 0 {
		id = id[i+2:]
	}
	if i := strings.LastIndex(id, "."); i >= 0 && i < len(id)-1 {
		id = id[i+1:]
	}
	return id
}

func normalizeSecurityMode(mode string) string {
	switch strings.ToLower(mode) {
	case "sign":
		return "Sign"
	case "signandencrypt", "signencrypt", "sign_and_encrypt", "sign+encrypt":
		return "SignAndEncrypt"
	default:
		return "None"
	}
}

func normalizeSecurityPolicy(policy string) string {
	if policy == "" {
		return "None"
	}
	return policy
}
