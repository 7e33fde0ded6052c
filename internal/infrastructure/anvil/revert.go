package anvil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// ReasonUnavailable is reported when no revert reason can be recovered
const ReasonUnavailable = "reason unavailable"

// RevertError marks a call or transaction the EVM rejected
type RevertError struct {
	Op     string
	Reason string
	Err    error
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("%s reverted: %s", e.Op, e.Reason)
}

func (e *RevertError) Unwrap() error {
	return e.Err
}

// IsRevert reports whether err is, or wraps, a RevertError
func IsRevert(err error) bool {
	var re *RevertError
	return errors.As(err, &re)
}

// ExtractRevertReason does a best-effort scan of err and every error it wraps
// for a revert reason. It never fails; unknown shapes yield ReasonUnavailable.
func ExtractRevertReason(err error) string {
	var re *RevertError
	if errors.As(err, &re) && re.Reason != "" && re.Reason != ReasonUnavailable {
		return re.Reason
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		if reason, ok := reasonFromData(e); ok {
			return reason
		}
		if reason, ok := reasonFromMessage(e.Error()); ok {
			return reason
		}
	}
	return ReasonUnavailable
}

// reasonFromData decodes Error(string) revert data attached to JSON-RPC errors
func reasonFromData(err error) (string, bool) {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return "", false
	}
	hexData, ok := de.ErrorData().(string)
	if !ok {
		return "", false
	}
	data, decodeErr := hexutil.Decode(hexData)
	if decodeErr != nil {
		return "", false
	}
	reason, unpackErr := abi.UnpackRevert(data)
	if unpackErr != nil || reason == "" {
		return "", false
	}
	return reason, true
}

func reasonFromMessage(msg string) (string, bool) {
	const reasonString = "reverted with reason string '"
	if i := strings.Index(msg, reasonString); i >= 0 {
		rest := msg[i+len(reasonString):]
		if j := strings.Index(rest, "'"); j > 0 {
			return rest[:j], true
		}
	}

	const executionReverted = "execution reverted:"
	if i := strings.Index(msg, executionReverted); i >= 0 {
		reason := strings.TrimSpace(msg[i+len(executionReverted):])
		if reason != "" {
			return reason, true
		}
	}
	return "", false
}

// classify wraps err as a RevertError when the node reports a revert
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsRevert(err) {
		return err
	}
	if strings.Contains(strings.ToLower(err.Error()), "revert") {
		return &RevertError{Op: op, Reason: ExtractRevertReason(err), Err: err}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
