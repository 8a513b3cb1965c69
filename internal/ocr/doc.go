// Package ocr extracts text from images using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). The caption
// flow uses it to ground factual and deep captions in the text that is
// actually visible in the picture (signs, labels, captions, screenshots).
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// # Confidence Filtering
//
// Tesseract reports a confidence for every word. Words below the reader's
// minimum confidence (0.6 by default) are dropped.
//
// # Performance Considerations
//
// OCR is CPU-bound. ReadText honours context cancellation before and while
// waiting for recognition, but the Tesseract call itself runs to completion
// in the background.
package ocr
