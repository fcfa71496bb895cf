package main

import (
	"encoding/json"
	"fmt"
	"io"

	"abi-decoder/internal/domain/entity"
	"abi-decoder/internal/domain/service"
	"abi-decoder/internal/infrastructure/blockchain"

	"github.com/spf13/cobra"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a single call or log without running the service",
	}
	cmd.AddCommand(newDecodeCallCmd())
	cmd.AddCommand(newDecodeLogCmd())
	return cmd
}

func newDecodeCallCmd() *cobra.Command {
	var (
		abiFiles []string
		input    string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "call",
		Short: "Decode call data and optional return data",
		RunE: func(cmd *cobra.Command, args []string) error {
			decoder, err := newOfflineDecoder(abiFiles)
			if err != nil {
				return err
			}
			decoded, err := decoder.DecodeMethod(input, output)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), decoded)
		},
	}

	cmd.Flags().StringSliceVar(&abiFiles, "abi", nil, "ABI JSON files (default: abi.files and abi.directories from config)")
	cmd.Flags().StringVar(&input, "input", "", "0x-prefixed call data")
	cmd.Flags().StringVar(&output, "output", "", "0x-prefixed return data")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newDecodeLogCmd() *cobra.Command {
	var (
		abiFiles []string
		log      entity.Log
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Decode an event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			decoder, err := newOfflineDecoder(abiFiles)
			if err != nil {
				return err
			}
			decoded, err := decoder.DecodeLog(log)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), decoded)
		},
	}

	cmd.Flags().StringSliceVar(&abiFiles, "abi", nil, "ABI JSON files (default: abi.files and abi.directories from config)")
	cmd.Flags().StringArrayVar(&log.Topics, "topic", nil, "log topic, repeat in order starting with topic 0")
	cmd.Flags().StringVar(&log.Data, "data", "0x", "0x-prefixed log data")
	cmd.Flags().StringVar(&log.Address, "address", "", "emitting contract address")
	return cmd
}

// newOfflineDecoder builds a decoder from the given files, falling back to
// the files and directories of the loaded configuration
func newOfflineDecoder(abiFiles []string) (service.ABIDecoder, error) {
	var (
		items []entity.InterfaceItem
		err   error
	)
	if len(abiFiles) > 0 {
		items, err = blockchain.LoadABIFiles(abiFiles, nil)
	} else {
		items, err = blockchain.LoadABIFiles(cfg.ABI.Files, cfg.ABI.Directories)
	}
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no ABI items loaded", service.ErrInvalidInput)
	}

	decoder := blockchain.NewDefaultABIDecoderService(appLogger)
	decoder.AddABI(items)
	return decoder, nil
}

// writeJSON prints v as indented JSON; a nil result prints null
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
