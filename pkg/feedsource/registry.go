package feedsource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const DefaultRegistryDirectory = "data/datasets/"

// LoadRegistry reads every data source declared in the YAML files of directory.
// A file may hold several YAML documents.
func LoadRegistry(directory string) ([]DataSet, error) {
	var registeredDatasets []DataSet

	err := filepath.Walk(directory,
		func(path string, fileInfo os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if fileInfo.IsDir() {
				return nil
			}

			extension := filepath.Ext(path)
			if extension != ".yaml" && extension != ".yml" {
				return nil
			}

			log.Debug().Str("path", path).Msg("Loading dataset registry file")

			registryYaml, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			decoder := yaml.NewDecoder(bytes.NewReader(registryYaml))

			for {
				var datasource DataSource
				err := decoder.Decode(&datasource)
				if errors.Is(err, io.EOF) {
					break
				} else if err != nil {
					return fmt.Errorf("failed to decode %s: %w", path, err)
				}

				for _, dataset := range datasource.Datasets {
					dataset.Identifier = fmt.Sprintf("%s-%s", datasource.Identifier, dataset.Identifier)
					dataset.DataSourceRef = datasource.Identifier
					dataset.Provider = datasource.Provider

					registeredDatasets = append(registeredDatasets, dataset)
				}
			}

			return nil
		})
	if err != nil {
		return nil, err
	}

	return registeredDatasets, nil
}

func GetDataset(registered []DataSet, identifier string) (DataSet, error) {
	for _, dataset := range registered {
		if dataset.Identifier == identifier {
			return dataset, nil
		}
	}

	return DataSet{}, fmt.Errorf("dataset %s could not be found", identifier)
}
