package reversi

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// EncodeSave writes the line-oriented save format: one "row,col,state" line per cell in
// row-major order, then a line holding the turn holder's state.
func EncodeSave(w io.Writer, grid Grid, turn Player) error {
	if !turn.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPlayer, turn)
	}

	bw := bufio.NewWriter(w)

	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if _, err := fmt.Fprintf(bw, "%d,%d,%d\n", row, col, grid.cells[row][col].State()); err != nil {
				return fmt.Errorf("failed to write cell line: %w", err)
			}
		}
	}

	if _, err := fmt.Fprintf(bw, "%d\n", int(turn)); err != nil {
		return fmt.Errorf("failed to write turn line: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush save data: %w", err)
	}

	return nil
}

// DecodeSave parses data written by EncodeSave. Any line that does not match the format yields
// ErrMalformedSaveData; nothing is returned half-built.
func DecodeSave(r io.Reader) (Grid, Player, error) {
	var grid Grid

	scanner := bufio.NewScanner(r)
	lineNo := 0
	cells := 0

	for cells < Size*Size {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return Grid{}, 0, fmt.Errorf("failed to read save data: %w", err)
			}
			return Grid{}, 0, fmt.Errorf("%w: expected %d cell lines, got %d", ErrMalformedSaveData, Size*Size, cells)
		}
		lineNo++

		want := Coord{Row: cells / Size, Col: cells % Size}
		cell, err := parseCellLine(strings.TrimSuffix(scanner.Text(), "\r"), want)
		if err != nil {
			return Grid{}, 0, fmt.Errorf("%w: line %d: %w", ErrMalformedSaveData, lineNo, err)
		}

		grid.cells[want.Row][want.Col] = cell
		cells++
	}

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return Grid{}, 0, fmt.Errorf("failed to read save data: %w", err)
		}
		return Grid{}, 0, fmt.Errorf("%w: missing turn line", ErrMalformedSaveData)
	}
	lineNo++

	turn, err := parseTurnLine(strings.TrimSuffix(scanner.Text(), "\r"))
	if err != nil {
		return Grid{}, 0, fmt.Errorf("%w: line %d: %w", ErrMalformedSaveData, lineNo, err)
	}

	for scanner.Scan() {
		lineNo++
		if strings.TrimSpace(scanner.Text()) != "" {
			return Grid{}, 0, fmt.Errorf("%w: line %d: unexpected content after turn line", ErrMalformedSaveData, lineNo)
		}
	}
	if err = scanner.Err(); err != nil {
		return Grid{}, 0, fmt.Errorf("failed to read save data: %w", err)
	}

	return grid, turn, nil
}

func parseCellLine(line string, want Coord) (Cell, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return Empty, fmt.Errorf("expected row,col,state, got %q", line)
	}

	values := make([]int, len(fields))
	for i, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil {
			return Empty, fmt.Errorf("field %d of %q is not an integer", i+1, line)
		}
		values[i] = value
	}

	at := Coord{Row: values[0], Col: values[1]}
	if at != want {
		return Empty, fmt.Errorf("expected cell %s, got %s", want, at)
	}

	cell, err := CellFromState(values[2])
	if err != nil {
		return Empty, err
	}

	// Atoi takes signs and leading zeros, the format does not.
	if canonical := fmt.Sprintf("%d,%d,%d", at.Row, at.Col, cell.State()); line != canonical {
		return Empty, fmt.Errorf("expected %q, got %q", canonical, line)
	}

	return cell, nil
}

func parseTurnLine(line string) (Player, error) {
	switch line {
	case "0":
		return White, nil
	case "1":
		return Black, nil
	default:
		return 0, fmt.Errorf("expected turn 0 or 1, got %q", line)
	}
}
