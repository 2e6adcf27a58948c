package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Deployment is one network's entry in the deployment manifest.
type Deployment struct {
	ChainID   uint64    `yaml:"chain_id"`
	RPCURL    string    `yaml:"rpc_url"`
	Addresses Addresses `yaml:"addresses"`
}

// Deployments maps network names to their protocol deployments.
type Deployments struct {
	Networks map[string]Deployment `yaml:"networks"`
}

// LoadDeployments reads a YAML deployment manifest.
func LoadDeployments(path string) (*Deployments, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open deployments: %w", err)
	}
	defer file.Close()
	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	out := &Deployments{}
	if err := dec.Decode(out); err != nil {
		return nil, fmt.Errorf("decode deployments: %w", err)
	}
	if len(out.Networks) == 0 {
		return nil, fmt.Errorf("deployments %s: no networks defined", path)
	}
	return out, nil
}

// Lookup returns the deployment registered for network.
func (d *Deployments) Lookup(network string) (Deployment, error) {
	key := strings.ToLower(strings.TrimSpace(network))
	for name, deployment := range d.Networks {
		if strings.ToLower(name) == key {
			return deployment, nil
		}
	}
	return Deployment{}, fmt.Errorf("network %q not found in deployments", network)
}

// applyDeployment fills blank settings from the manifest entry for the
// configured network. Values set explicitly in the config file win.
func (c *Config) applyDeployment(d *Deployments) error {
	if strings.TrimSpace(c.Network) == "" {
		return fmt.Errorf("DeploymentFile %s requires Network", c.DeploymentFile)
	}
	deployment, err := d.Lookup(c.Network)
	if err != nil {
		return err
	}
	if c.ChainID == 0 {
		c.ChainID = deployment.ChainID
	} else if deployment.ChainID != 0 && deployment.ChainID != c.ChainID {
		return fmt.Errorf("ChainID %d does not match network %s (chain %d)", c.ChainID, c.Network, deployment.ChainID)
	}
	if deployment.RPCURL != "" && c.RPCURL == defaultRPCURL {
		c.RPCURL = deployment.RPCURL
	}
	fill := func(dst *string, value string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = value
		}
	}
	fill(&c.Addresses.Core, deployment.Addresses.Core)
	fill(&c.Addresses.TransferProxy, deployment.Addresses.TransferProxy)
	fill(&c.Addresses.Vault, deployment.Addresses.Vault)
	fill(&c.Addresses.RebalanceAuctionModule, deployment.Addresses.RebalanceAuctionModule)
	fill(&c.Addresses.RebalancingSetTokenFactory, deployment.Addresses.RebalancingSetTokenFactory)
	fill(&c.Addresses.SetTokenFactory, deployment.Addresses.SetTokenFactory)
	fill(&c.Addresses.ProtocolViewer, deployment.Addresses.ProtocolViewer)
	return nil
}
