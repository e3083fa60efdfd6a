// Command vocrecord converts a directory of images with Pascal VOC annotations into a TFRecord
// file for the TensorFlow object detection API.
//
// Running vocrecord without arguments converts images/ and annotations/ in the working directory
// into model/train.record, using vocrecord.toml when present. Subcommands write the label map,
// inspect record files and create a sample configuration.
package main
