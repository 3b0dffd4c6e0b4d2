// Package sgdl parses solitaire game descriptions.
//
// A description starts with the game name and continues with the sections
// $cards, $initial, $moves, an optional $auto and $win:
//
//	Klondike
//
//	$cards
//	DECK 1 {SPADES, HEARTS, CLUBS, DIAMONDS}
//
//	$initial
//	DRAW 24 ROTATE 1 1 U
//	COLUMN 1
//	COLUMN 2
//	FOUNDATION 0
//
//	$moves
//	MOVE {COLUMN, DRAW} COLUMN
//	    OR
//	        AND
//	            DEST Empty
//	            SRC Rank K
//	        AND
//	            DESTSRC Suit alternate_color
//	            DESTSRC Rank descending
//
//	$win
//	PILE ALL {FOUNDATION} Size == 13
//
// Lines are tokenized with participle; section structure and the indentation
// of AND/OR blocks are handled here. Every error is a *ParseError that wraps
// one of the Err* sentinels.
package sgdl
