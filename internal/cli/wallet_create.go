package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberwallet/ember/internal/engine"
	"github.com/emberwallet/ember/internal/phrase"
	emberr "github.com/emberwallet/ember/pkg/errors"
)

// validateWalletCreationParams validates inputs for wallet creation.
func validateWalletCreationParams(wordCount int, cc *CommandContext) error {
	if wordCount != 12 && wordCount != 24 {
		return emberr.WithSuggestion(
			emberr.ErrInvalidInput,
			"word count must be 12 or 24",
		)
	}

	if cc.Store.Exists() {
		return emberr.WithSuggestion(
			emberr.ErrWalletExists,
			"a wallet already exists; run 'ember wallet logout --forget' to remove it first",
		)
	}

	return nil
}

func runWalletCreate(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()

	if err := validateWalletCreationParams(createWords, cc); err != nil {
		return err
	}

	ceremony, err := phrase.NewCeremonyWords(createWords)
	if err != nil {
		return err
	}
	defer ceremony.Destroy()

	// Reveal gate: the phrase stays masked until the user asks for it.
	outln(w, "Your wallet's recovery phrase is ready. It is the ONLY way to")
	outln(w, "recover your funds if this device is lost.")
	if !promptConfirm("Reveal the phrase now?") {
		return emberr.WithSuggestion(
			emberr.ErrPhraseMasked,
			"run 'ember wallet create' again when you are ready to write the phrase down",
		)
	}

	words, err := ceremony.Reveal()
	if err != nil {
		return err
	}
	displayPhrase(words, cmd)

	if err := runVerification(ceremony, cmd); err != nil {
		return err
	}

	mnemonic, err := ceremony.Mnemonic()
	if err != nil {
		return err
	}

	if err := saveAndConnect(mnemonic, cc, cmd); err != nil {
		return err
	}

	outln(w)
	outln(w, "Wallet created and connected.")
	out(w, "Wallet file: %s\n", cc.Store.Path())

	return nil
}

// runVerification spot-checks random phrase positions until the user passes.
func runVerification(ceremony *phrase.Ceremony, cmd *cobra.Command) error {
	w := cmd.OutOrStdout()

	positions, err := ceremony.VerificationPositions()
	if err != nil {
		return err
	}

	outln(w)
	outln(w, "Verify your backup. Enter the requested words from your written copy.")

	for {
		answers := make(map[int]string, len(positions))
		for _, pos := range positions {
			answer, promptErr := promptLineFn(fmt.Sprintf("Word #%d: ", pos))
			if promptErr != nil {
				return promptErr
			}
			answers[pos] = answer
		}

		results, verifyErr := ceremony.Verify(answers)
		if verifyErr == nil {
			outln(w, "Backup verified.")
			return nil
		}
		if !emberr.Is(verifyErr, emberr.ErrVerifyMismatch) {
			return verifyErr
		}

		var wrong []string
		for _, pos := range positions {
			if !results[pos] {
				wrong = append(wrong, fmt.Sprintf("#%d", pos))
			}
		}
		out(w, "Incorrect: %s. Check your written copy and try again.\n", strings.Join(wrong, ", "))

		if !promptConfirm("Retry verification?") {
			return emberr.WithSuggestion(
				emberr.ErrVerifyMismatch,
				"the wallet was not saved; run 'ember wallet create' to start over",
			)
		}
	}
}

// saveAndConnect encrypts the phrase to disk, then opens the engine session.
func saveAndConnect(mnemonic string, cc *CommandContext, cmd *cobra.Command) error {
	password, err := promptNewPasswordFn()
	if err != nil {
		return err
	}
	defer zeroBytes(password)

	if err := cc.Store.Save(mnemonic, cc.Cfg.Network, password); err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, 30*time.Second)
	defer cancel()

	err = cc.Session.Init(ctx, engine.Credentials{
		Mnemonic: mnemonic,
		APIKey:   cc.Cfg.GetEngineAPIKey(),
		Network:  cc.Cfg.Network,
	})
	if err != nil {
		// The wallet is saved; connecting can be retried on the next command.
		out(cmd.OutOrStderr(), "\nWarning: could not connect to the wallet engine: %v\n", err)
	}

	return nil
}

// displayPhrase shows the recovery phrase with formatting.
func displayPhrase(words []string, cmd *cobra.Command) {
	w := cmd.OutOrStdout()
	outln(w)
	outln(w, "===================================================================")
	outln(w, "                    RECOVERY PHRASE")
	outln(w, "===================================================================")
	outln(w)
	outln(w, "Write down these words in order and store them securely.")
	outln(w, "This is the ONLY way to recover your wallet.")
	outln(w)

	for i, word := range words {
		out(w, "%2d. %s\n", i+1, word)
	}

	outln(w)
	outln(w, "===================================================================")
	outln(w)
}

func runWalletImport(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()

	if cc.Store.Exists() {
		return emberr.WithSuggestion(
			emberr.ErrWalletExists,
			"a wallet already exists; run 'ember wallet logout --forget' to remove it first",
		)
	}

	var mnemonic string
	var err error
	if importInput != "" {
		mnemonic = phrase.Normalize(importInput)
		if err = phrase.Validate(mnemonic); err != nil {
			if typos := phrase.DetectTypos(mnemonic); len(typos) > 0 {
				return emberr.WithSuggestion(err, phrase.FormatTypoSuggestions(typos))
			}
			return err
		}
	} else {
		mnemonic, err = promptMnemonic()
		if err != nil {
			return err
		}
	}

	if err := saveAndConnect(mnemonic, cc, cmd); err != nil {
		return err
	}

	outln(w)
	outln(w, "Wallet imported and connected.")
	out(w, "Wallet file: %s\n", cc.Store.Path())

	return nil
}
