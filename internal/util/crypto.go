package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Lower-case alphabet so generated ids are safe as object storage prefixes
const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func GenerateNChar(n int) (string, error) {
	id, err := gonanoid.Generate(idAlphabet, n)
	if err != nil {
		return "", err
	}
	return id, nil
}
