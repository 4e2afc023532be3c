//
// Copyright 2019 Insolar Technologies GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package configuration

import (
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	ConfigName     = "dao-observer"
	ConfigType     = "yaml"
	ConfigFilePath = ConfigName + "." + ConfigType
	EnvPrefix      = "observer"
)

// Load reads the configuration file and environment. Any failure falls back
// to Default.
func Load() *Configuration {
	log := logrus.StandardLogger()
	printWorkingDir(log)
	actual := load(log, viper.New())
	printConfig(log, actual)
	return actual
}

// LoadWith is Load over a caller-provided viper instance, used when flags are
// bound before loading.
func LoadWith(v *viper.Viper) *Configuration {
	log := logrus.StandardLogger()
	actual := load(log, v)
	printConfig(log, actual)
	return actual
}

func load(log logrus.FieldLogger, v *viper.Viper) *Configuration {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(EnvPrefix)

	v.SetConfigName(ConfigName)
	v.SetConfigType(ConfigType)
	v.AddConfigPath(".")
	v.AddConfigPath(".artifacts")

	actual := Default()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Warnf("config file not found (file=%v). Default configuration is used", ConfigFilePath)
		} else {
			log.Error(errors.Wrapf(err, "failed to load config. Default configuration is used"))
			return Default()
		}
	}

	err := v.Unmarshal(actual)
	if err != nil {
		log.Error(errors.Wrapf(err, "failed to unmarshal config into configuration structure. Default configuration is used"))
		return Default()
	}

	return actual
}

func printWorkingDir(log logrus.FieldLogger) {
	wd, _ := os.Getwd()
	log.Infof("Working dir: %s", wd)
}

func printConfig(log logrus.FieldLogger, c *Configuration) {
	cc, err := cleanSecrets(c)
	if err != nil {
		log.Error(err)
		return
	}
	out, err := yaml.Marshal(cc)
	if err != nil {
		log.Error(errors.Wrapf(err, "failed to marshal config structure"))
		return
	}
	log.Infof("Loaded configuration: \n %s \n", string(out))
}

func cleanSecrets(c *Configuration) (*Configuration, error) {
	buf, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.New("failed to serialize config")
	}
	cc := &Configuration{}
	if err := yaml.Unmarshal(buf, cc); err != nil {
		return nil, errors.New("failed to deserialize config")
	}
	cc.DB.URL = replacePassword(cc.DB.URL)
	cc.Profiles.URL = replacePassword(cc.Profiles.URL)
	cc.Actions.URL = replacePassword(cc.Actions.URL)
	return cc, nil
}

func replacePassword(url string) string {
	re := regexp.MustCompile(`^(?P<start>.*)(:(?P<pass>[^@\/:?]+)@)(?P<end>.*)$`)
	result := []byte{}
	if re.MatchString(url) {
		for _, submatches := range re.FindAllStringSubmatchIndex(url, -1) {
			result = re.ExpandString(result, `$start:<masked>@$end`, url, submatches)
		}
		return string(result)
	}
	return url
}
