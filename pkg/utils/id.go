package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 6
)

func GenerateID() (string, error) {
	return gonanoid.Generate(idAlphabet, idLength)
}

// CopySuffix gera o sufixo aplicado ao nome de uma campanha duplicada, ex: " - Cópia aB3xY9"
func CopySuffix() (string, error) {
	id, err := GenerateID()
	if err != nil {
		return "", err
	}

	return " - Cópia " + id, nil
}
