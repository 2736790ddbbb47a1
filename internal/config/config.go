package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Keywords описывает политику ключевых слов классификатора.
// Block-лист всегда имеет приоритет над allow-листом.
type Keywords struct {
	Allow []string `yaml:"allow"`
	Block []string `yaml:"block"`
}

// LoadKeywords читает YAML-файл с политикой ключевых слов.
// Отсутствующий файл не ошибка: значения берутся из окружения либо из
// встроенного дефолтного набора.
func LoadKeywords(path string) (Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Keywords{}, nil
		}
		return Keywords{}, fmt.Errorf("read keywords config: %w", err)
	}

	var kw Keywords
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return Keywords{}, fmt.Errorf("unmarshal keywords config: %w", err)
	}
	return kw, nil
}

// Merge накладывает значения из окружения поверх YAML: непустой список из
// env полностью заменяет соответствующий список файла.
func (k Keywords) Merge(envAllow, envBlock []string) Keywords {
	out := k
	if len(envAllow) > 0 {
		out.Allow = envAllow
	}
	if len(envBlock) > 0 {
		out.Block = envBlock
	}
	return out
}
