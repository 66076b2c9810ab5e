package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/manifoldco/promptui"
)

// Prompts render on stderr so stdout only ever carries the deployment result.
var promptOut = os.Stderr

// Track if colors are disabled for promptui templates
var colorsDisabled = false

// disableColors turns off colored prompt output.
func disableColors() {
	colorsDisabled = true
}

var plainPromptTemplates = &promptui.PromptTemplates{
	Prompt:  "{{ . }}: ",
	Valid:   "{{ . }}: ",
	Invalid: "{{ . }}: ",
	Success: "{{ . }}: ",
}

// runPrompt runs a prompt and normalizes interrupt errors.
func runPrompt(prompt *promptui.Prompt) (string, error) {
	prompt.Stdout = promptOut
	if colorsDisabled && prompt.Templates == nil {
		prompt.Templates = plainPromptTemplates
	}

	result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return "", fmt.Errorf("interrupted")
		}
		return "", err
	}

	return strings.TrimSpace(result), nil
}

// promptText prompts for text input with validation.
func promptText(label string, defaultVal string, validate func(string) error) (string, error) {
	prompt := &promptui.Prompt{
		Label:   label,
		Default: defaultVal,
	}
	if validate != nil {
		prompt.Validate = validate
	}
	return runPrompt(prompt)
}

// promptPassword prompts for sensitive input (hidden).
func promptPassword(label string) (string, error) {
	return runPrompt(&promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(input string) error {
			if len(strings.TrimSpace(input)) == 0 {
				return errors.New("input cannot be empty")
			}
			return nil
		},
	})
}

// promptPrivateKey prompts for a private key with validation.
func promptPrivateKey(label string) (string, error) {
	return runPrompt(&promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(input string) error {
			input = strings.TrimSpace(input)
			if len(input) == 0 {
				return errors.New("private key cannot be empty")
			}
			input = strings.TrimPrefix(input, "0x")
			if _, err := crypto.HexToECDSA(input); err != nil {
				return errors.New("invalid private key format")
			}
			return nil
		},
	})
}

// promptConfirm prompts for yes/no confirmation.
func promptConfirm(label string) (bool, error) {
	prompt := &promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if colorsDisabled {
		prompt.Templates = &promptui.PromptTemplates{
			Prompt:  "{{ . }} [y/N]: ",
			Valid:   "{{ . }} [y/N]: ",
			Invalid: "{{ . }} [y/N]: ",
			Success: "{{ . }}: ",
		}
	}

	_, err := runPrompt(prompt)
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		if err.Error() == "interrupted" {
			return false, err
		}
		return false, nil
	}

	return true, nil
}
