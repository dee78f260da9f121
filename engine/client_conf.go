package engine

import (
	"bufio"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/ndncomm/ndn-go/ndn"
	"github.com/ndncomm/ndn-go/transport"
)

// ClientConfig selects the transport used to reach the forwarder.
type ClientConfig struct {
	TransportUri string `yaml:"transport"`
}

// GetClientConfig resolves the client configuration, in order of
// increasing priority: platform default, client.conf files, YAML
// config files, NDN_CLIENT_TRANSPORT environment variable.
func GetClientConfig() ClientConfig {
	config := ClientConfig{
		TransportUri: transport.DefaultConnInfo().String(),
	}

	configDirs := []string{
		"/etc/ndn",
		"/usr/local/etc/ndn",
		os.Getenv("HOME") + "/.ndn",
	}

	for _, dir := range configDirs {
		readClientConf(dir+"/client.conf", &config)
	}
	for _, dir := range configDirs {
		readYamlConf(dir+"/ndn-client.yml", &config)
	}

	if transportEnv := os.Getenv("NDN_CLIENT_TRANSPORT"); transportEnv != "" {
		config.TransportUri = transportEnv
	}

	return config
}

// readClientConf reads the traditional key=value client.conf format.
func readClientConf(filename string, config *ClientConfig) {
	file, err := os.OpenFile(filename, os.O_RDONLY, 0)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, ";") { // comment
			continue
		}
		if uri, ok := strings.CutPrefix(line, "transport="); ok {
			config.TransportUri = uri
		}
	}
}

func readYamlConf(filename string, config *ClientConfig) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return
	}
	parsed := ClientConfig{}
	if err := yaml.Unmarshal(buf, &parsed); err != nil {
		return
	}
	if parsed.TransportUri != "" {
		config.TransportUri = parsed.TransportUri
	}
}

// NewDefaultFace constructs a face from the resolved client config.
func NewDefaultFace() (ndn.Face, error) {
	config := GetClientConfig()
	ci, err := transport.ParseConnInfo(config.TransportUri)
	if err != nil {
		return nil, err
	}
	return transport.NewFace(ci)
}

// NewDefaultApp constructs an engine over the default face with the
// wall-clock timer.
func NewDefaultApp() (*App, error) {
	face, err := NewDefaultFace()
	if err != nil {
		return nil, err
	}
	return NewApp(face, NewTimer()), nil
}
